// Package telemetry decodes the data-channel payloads a drone publisher
// emits alongside its video: per-drone telemetry, fleet telemetry for
// other drones in the area, and GeoJSON map overlays.
package telemetry

import (
	"encoding/json"
	"errors"
)

// Telemetry is the normalized per-drone record. Publishers send one of
// two wire schemas; Decode folds both into this shape.
type Telemetry struct {
	Latitude    float64  `json:"latitude" msgpack:"latitude"`
	Longitude   float64  `json:"longitude" msgpack:"longitude"`
	AltitudeAHL *float64 `json:"altitude_ahl,omitempty" msgpack:"altitude_ahl,omitempty"`
	AltitudeASL *float64 `json:"altitude_asl,omitempty" msgpack:"altitude_asl,omitempty"`
	Bearing     float64  `json:"bearing" msgpack:"bearing"`
	Pitch       float64  `json:"pitch" msgpack:"pitch"`
	Roll        float64  `json:"roll" msgpack:"roll"`
	LastGPSTime int64    `json:"lastGPSTime" msgpack:"lastGPSTime"`
	Battery     *float64 `json:"battery,omitempty" msgpack:"battery,omitempty"`
}

// nestedRecord is the current drone_telemetry schema: GPS, pose and
// misc fields in separate groups.
type nestedRecord struct {
	Type string `json:"type"`
	GPS  struct {
		Latitude    float64  `json:"latitude"`
		Longitude   float64  `json:"longitude"`
		AltitudeAHL *float64 `json:"altitude_ahl"`
		AltitudeASL *float64 `json:"altitude_asl"`
	} `json:"gps"`
	Pose struct {
		Bearing float64 `json:"bearing"`
		Pitch   float64 `json:"pitch"`
		Roll    float64 `json:"roll"`
	} `json:"pose"`
	Misc struct {
		LastGPSTime int64    `json:"lastGPSTime"`
		Battery     *float64 `json:"battery"`
	} `json:"misc"`
}

// legacyRecord is the older flat pose schema.
type legacyRecord struct {
	Pose struct {
		Latitude    float64  `json:"latitude"`
		Longitude   float64  `json:"longitude"`
		AltitudeAHL *float64 `json:"altitude_ahl"`
		AltitudeASL *float64 `json:"altitude_asl"`
		Bearing     float64  `json:"bearing"`
		Pitch       float64  `json:"pitch"`
		Roll        float64  `json:"roll"`
	} `json:"pose"`
	LastGPSTime int64 `json:"lastGPSTime"`
}

var errNoPose = errors.New("telemetry message has no pose data")

// Decode parses a drone_data channel message, accepting both the
// nested drone_telemetry schema and the legacy flat pose schema.
func Decode(data []byte) (Telemetry, error) {
	var nested nestedRecord
	if err := json.Unmarshal(data, &nested); err == nil && nested.Type == "drone_telemetry" {
		return Telemetry{
			Latitude:    nested.GPS.Latitude,
			Longitude:   nested.GPS.Longitude,
			AltitudeAHL: nested.GPS.AltitudeAHL,
			AltitudeASL: nested.GPS.AltitudeASL,
			Bearing:     nested.Pose.Bearing,
			Pitch:       nested.Pose.Pitch,
			Roll:        nested.Pose.Roll,
			LastGPSTime: nested.Misc.LastGPSTime,
			Battery:     nested.Misc.Battery,
		}, nil
	}

	var legacy legacyRecord
	if err := json.Unmarshal(data, &legacy); err != nil {
		return Telemetry{}, err
	}
	if legacy.Pose.Latitude == 0 && legacy.Pose.Longitude == 0 && legacy.LastGPSTime == 0 {
		return Telemetry{}, errNoPose
	}
	return Telemetry{
		Latitude:    legacy.Pose.Latitude,
		Longitude:   legacy.Pose.Longitude,
		AltitudeAHL: legacy.Pose.AltitudeAHL,
		AltitudeASL: legacy.Pose.AltitudeASL,
		Bearing:     legacy.Pose.Bearing,
		Pitch:       legacy.Pose.Pitch,
		Roll:        legacy.Pose.Roll,
		LastGPSTime: legacy.LastGPSTime,
	}, nil
}

// DecodeFleet parses a telemetry_drone_data channel message: a map of
// other drones' telemetry keyed by drone ID.
func DecodeFleet(data []byte) (map[string]Telemetry, error) {
	var fleet map[string]json.RawMessage
	if err := json.Unmarshal(data, &fleet); err != nil {
		return nil, err
	}

	out := make(map[string]Telemetry, len(fleet))
	for id, raw := range fleet {
		rec, err := Decode(raw)
		if err != nil {
			// One bad entry must not drop the rest of the fleet.
			continue
		}
		out[id] = rec
	}
	return out, nil
}
