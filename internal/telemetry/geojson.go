package telemetry

import (
	"encoding/json"
	"fmt"
)

// ChunkEnvelope is how oversized GeoJSON documents arrive: the document
// is split into Total string parts sharing one ID, each tagged with its
// Index. Parts may arrive in any order.
type ChunkEnvelope struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Index int    `json:"index"`
	Total int    `json:"total"`
	Data  string `json:"data"`
}

// IsChunk reports whether a geojson_data message is a chunk envelope
// rather than a complete document.
func IsChunk(data []byte) bool {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Type == "chunk"
}

type chunkSet struct {
	parts    []string
	have     []bool
	received int
	total    int
}

// ChunkAssembler buffers chunk envelopes until every part of a document
// has arrived, then reassembles them in index order. Partial documents
// for an ID are discarded when Reset is called, so an interrupted
// transfer never poisons a later one.
type ChunkAssembler struct {
	pending map[string]*chunkSet
}

// NewChunkAssembler creates an empty assembler.
func NewChunkAssembler() *ChunkAssembler {
	return &ChunkAssembler{pending: make(map[string]*chunkSet)}
}

// Add buffers one chunk. When the final missing part arrives, the
// reassembled document is returned with done=true and the buffer for
// that ID is released.
func (a *ChunkAssembler) Add(env ChunkEnvelope) (doc []byte, done bool, err error) {
	if env.Total <= 0 {
		return nil, false, fmt.Errorf("chunk %s: invalid total %d", env.ID, env.Total)
	}
	if env.Index < 0 || env.Index >= env.Total {
		return nil, false, fmt.Errorf("chunk %s: index %d out of range [0,%d)", env.ID, env.Index, env.Total)
	}

	set, ok := a.pending[env.ID]
	if !ok {
		set = &chunkSet{
			parts: make([]string, env.Total),
			have:  make([]bool, env.Total),
			total: env.Total,
		}
		a.pending[env.ID] = set
	}
	if env.Total != set.total {
		return nil, false, fmt.Errorf("chunk %s: total changed from %d to %d", env.ID, set.total, env.Total)
	}

	if !set.have[env.Index] {
		set.have[env.Index] = true
		set.parts[env.Index] = env.Data
		set.received++
	}

	if set.received < set.total {
		return nil, false, nil
	}

	delete(a.pending, env.ID)
	var joined []byte
	for _, part := range set.parts {
		joined = append(joined, part...)
	}
	if !json.Valid(joined) {
		return nil, false, fmt.Errorf("chunk %s: reassembled document is not valid JSON", env.ID)
	}
	return joined, true, nil
}

// Pending returns how many incomplete documents are buffered.
func (a *ChunkAssembler) Pending() int {
	return len(a.pending)
}

// Reset discards all partially received documents.
func (a *ChunkAssembler) Reset() {
	a.pending = make(map[string]*chunkSet)
}
