package models

import "time"

// KeyInputs is the semantic description of a generation request, the
// material the cache key is derived from. Image content never appears
// here — only the count of resolved upstream images. Optional fields
// are pointers so that an absent field stays out of the key entirely.
type KeyInputs struct {
	NodeID      string   `json:"nodeId"`
	NodeKind    NodeKind `json:"nodeKind"`
	Prompt      string   `json:"prompt"`
	ImageCount  int      `json:"imageCount"`
	Model       *string  `json:"model,omitempty"`
	Resolution  *string  `json:"resolution,omitempty"`
	AspectRatio *string  `json:"aspectRatio,omitempty"`
	Provider    *string  `json:"provider,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Seed        int32    `json:"seed"`
}

// Equal compares two input sets field-wise, including optional fields.
// Used on cache lookup to reject hash collisions.
func (in KeyInputs) Equal(other KeyInputs) bool {
	return in.NodeID == other.NodeID &&
		in.NodeKind == other.NodeKind &&
		in.Prompt == other.Prompt &&
		in.ImageCount == other.ImageCount &&
		in.Seed == other.Seed &&
		eqStringPtr(in.Model, other.Model) &&
		eqStringPtr(in.Resolution, other.Resolution) &&
		eqStringPtr(in.AspectRatio, other.AspectRatio) &&
		eqStringPtr(in.Provider, other.Provider) &&
		eqFloatPtr(in.Temperature, other.Temperature)
}

func eqStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Generation is a cached generation result. Records are immutable once
// written: a new seed or input combination produces a new record rather
// than overwriting.
type Generation struct {
	ID        string    `json:"id"`         // cache key
	PayloadID string    `json:"payload_id"` // id in durable payload storage
	Seed      int32     `json:"seed"`
	NodeID    string    `json:"node_id"`
	NodeKind  NodeKind  `json:"node_kind"`
	Inputs    KeyInputs `json:"inputs"`
	Output    Artifact  `json:"output"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt int64     `json:"expires_at"` // unix ms, 0 = never
}

// CacheStats reports cache usage. EstimatedSize is a coarse advisory
// figure (entry count times an average artifact size), not a byte-exact
// measurement.
type CacheStats struct {
	Entries       int64 `json:"entries"`
	EstimatedSize int64 `json:"estimated_size"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
}
