package telemetry

import (
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Sample is one flight-log entry: the telemetry visible at a tick plus
// the transport facts that accompanied it.
type Sample struct {
	At            int64      `msgpack:"at"`
	RoomID        string     `msgpack:"roomId"`
	Receiving     bool       `msgpack:"receiving"`
	BytesReceived uint64     `msgpack:"bytesReceived"`
	Telemetry     *Telemetry `msgpack:"telemetry,omitempty"`
}

// Recorder appends msgpack-encoded samples to a flight-log file. It is
// safe for use from the viewer loop plus a closing goroutine.
type Recorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *msgpack.Encoder
}

// NewRecorder opens (or creates) the flight-log file for appending.
func NewRecorder(path string) (*Recorder, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &Recorder{file: file, enc: msgpack.NewEncoder(file)}, nil
}

// Record appends one sample, stamping it with the current time when
// s.At is unset.
func (r *Recorder) Record(s Sample) error {
	if s.At == 0 {
		s.At = time.Now().UnixMilli()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return os.ErrClosed
	}
	return r.enc.Encode(s)
}

// Close flushes and closes the flight log.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// ReadLog decodes every sample from a flight-log file.
func ReadLog(path string) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dec := msgpack.NewDecoder(file)
	var samples []Sample
	for {
		var s Sample
		if err := dec.Decode(&s); err != nil {
			// msgpack returns io.EOF at a clean end of stream.
			break
		}
		samples = append(samples, s)
	}
	return samples, nil
}
