package telemetry

import (
	"path/filepath"
	"testing"
)

func TestDecodeNestedSchema(t *testing.T) {
	data := []byte(`{
		"type": "drone_telemetry",
		"gps": {"latitude": 48.2082, "longitude": 16.3738, "altitude_asl": 312.5, "altitude_ahl": 120.0},
		"pose": {"bearing": 270.5, "pitch": -3.2, "roll": 1.1},
		"misc": {"lastGPSTime": 1712000000000, "battery": 87.5}
	}`)

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Latitude != 48.2082 || got.Longitude != 16.3738 {
		t.Errorf("wrong position: %+v", got)
	}
	if got.AltitudeASL == nil || *got.AltitudeASL != 312.5 {
		t.Errorf("wrong altitude_asl: %+v", got.AltitudeASL)
	}
	if got.Bearing != 270.5 || got.Pitch != -3.2 || got.Roll != 1.1 {
		t.Errorf("wrong pose: %+v", got)
	}
	if got.LastGPSTime != 1712000000000 {
		t.Errorf("wrong lastGPSTime: %d", got.LastGPSTime)
	}
	if got.Battery == nil || *got.Battery != 87.5 {
		t.Errorf("wrong battery: %+v", got.Battery)
	}
}

func TestDecodeLegacySchema(t *testing.T) {
	data := []byte(`{
		"pose": {"latitude": -33.8688, "longitude": 151.2093, "bearing": 12.0, "pitch": 0.5, "roll": -0.5},
		"lastGPSTime": 1712000001000
	}`)

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Latitude != -33.8688 || got.Longitude != 151.2093 {
		t.Errorf("wrong position: %+v", got)
	}
	if got.AltitudeAHL != nil {
		t.Errorf("absent altitude should stay nil, got %v", *got.AltitudeAHL)
	}
	if got.LastGPSTime != 1712000001000 {
		t.Errorf("wrong lastGPSTime: %d", got.LastGPSTime)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte(`not json at all`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := Decode([]byte(`{}`)); err == nil {
		t.Error("expected error for message with no pose")
	}
}

func TestDecodeFleet(t *testing.T) {
	data := []byte(`{
		"drone-a": {"pose": {"latitude": 1.0, "longitude": 2.0, "bearing": 90}, "lastGPSTime": 5},
		"drone-b": {"type": "drone_telemetry", "gps": {"latitude": 3.0, "longitude": 4.0}, "pose": {"bearing": 180}, "misc": {"lastGPSTime": 6}},
		"drone-bad": {"unrelated": true}
	}`)

	fleet, err := DecodeFleet(data)
	if err != nil {
		t.Fatalf("DecodeFleet: %v", err)
	}
	if len(fleet) != 2 {
		t.Fatalf("expected 2 decodable drones, got %d: %+v", len(fleet), fleet)
	}
	if fleet["drone-a"].Bearing != 90 || fleet["drone-b"].Bearing != 180 {
		t.Errorf("wrong fleet records: %+v", fleet)
	}
}

func TestChunkAssemblerOutOfOrder(t *testing.T) {
	a := NewChunkAssembler()

	parts := []string{`{"type":"FeatureCol`, `lection","features`, `":[]}`}
	order := []int{0, 2, 1}

	for i, idx := range order {
		doc, done, err := a.Add(ChunkEnvelope{Type: "chunk", ID: "g1", Index: idx, Total: 3, Data: parts[idx]})
		if err != nil {
			t.Fatalf("Add chunk %d: %v", idx, err)
		}
		if i < len(order)-1 {
			if done {
				t.Fatalf("document complete after %d of 3 chunks", i+1)
			}
			continue
		}
		if !done {
			t.Fatal("document not complete after all chunks")
		}
		want := parts[0] + parts[1] + parts[2]
		if string(doc) != want {
			t.Errorf("reassembled in arrival order?\n got %s\nwant %s", doc, want)
		}
	}

	if a.Pending() != 0 {
		t.Errorf("completed document still pending: %d", a.Pending())
	}
}

func TestChunkAssemblerDuplicateChunk(t *testing.T) {
	a := NewChunkAssembler()

	add := func(idx int, data string) (bool, error) {
		_, done, err := a.Add(ChunkEnvelope{Type: "chunk", ID: "dup", Index: idx, Total: 2, Data: data})
		return done, err
	}

	if _, err := add(0, `{"a":`); err != nil {
		t.Fatal(err)
	}
	// A retransmitted chunk must not complete the document early.
	if done, err := add(0, `{"a":`); err != nil || done {
		t.Fatalf("duplicate chunk: done=%v err=%v", done, err)
	}
	done, err := add(1, `1}`)
	if err != nil || !done {
		t.Fatalf("final chunk: done=%v err=%v", done, err)
	}
}

func TestChunkAssemblerValidation(t *testing.T) {
	a := NewChunkAssembler()

	if _, _, err := a.Add(ChunkEnvelope{ID: "x", Index: 0, Total: 0}); err == nil {
		t.Error("expected error for total=0")
	}
	if _, _, err := a.Add(ChunkEnvelope{ID: "x", Index: 5, Total: 3}); err == nil {
		t.Error("expected error for index out of range")
	}

	// A reassembled document that is not valid JSON is rejected.
	a.Add(ChunkEnvelope{ID: "bad", Index: 0, Total: 2, Data: `{"broken":`})
	if _, _, err := a.Add(ChunkEnvelope{ID: "bad", Index: 1, Total: 2, Data: `oops`}); err == nil {
		t.Error("expected error for invalid reassembled JSON")
	}
}

func TestChunkAssemblerReset(t *testing.T) {
	a := NewChunkAssembler()
	a.Add(ChunkEnvelope{ID: "partial", Index: 0, Total: 2, Data: "{"})
	if a.Pending() != 1 {
		t.Fatalf("expected 1 pending, got %d", a.Pending())
	}
	a.Reset()
	if a.Pending() != 0 {
		t.Errorf("expected 0 pending after reset, got %d", a.Pending())
	}
}

func TestIsChunk(t *testing.T) {
	if !IsChunk([]byte(`{"type":"chunk","id":"a","index":0,"total":1,"data":"{}"}`)) {
		t.Error("chunk envelope not recognized")
	}
	if IsChunk([]byte(`{"type":"FeatureCollection","features":[]}`)) {
		t.Error("complete document misidentified as chunk")
	}
	if IsChunk([]byte(`garbage`)) {
		t.Error("invalid JSON misidentified as chunk")
	}
}

func TestRecorderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.log")

	r, err := NewRecorder(path)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	alt := 100.0
	samples := []Sample{
		{At: 10, RoomID: "ABC123", Receiving: false, BytesReceived: 0},
		{At: 20, RoomID: "ABC123", Receiving: true, BytesReceived: 4096, Telemetry: &Telemetry{
			Latitude: 1.5, Longitude: 2.5, Bearing: 45, AltitudeAHL: &alt, LastGPSTime: 15,
		}},
	}
	for _, s := range samples {
		if err := r.Record(s); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadLog(path)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got))
	}
	if got[1].BytesReceived != 4096 || !got[1].Receiving {
		t.Errorf("wrong sample: %+v", got[1])
	}
	if got[1].Telemetry == nil || got[1].Telemetry.Latitude != 1.5 {
		t.Errorf("telemetry lost in round trip: %+v", got[1].Telemetry)
	}
}
