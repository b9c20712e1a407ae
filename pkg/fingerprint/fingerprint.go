// Package fingerprint derives cache keys from a node's semantic inputs.
package fingerprint

import (
	"encoding/json"
	"fmt"

	"github.com/nodebanana-ai/nodebanana/pkg/models"
)

// signature is the canonical structure hashed into a cache key. Field
// order is fixed by declaration order; absent optional fields drop out
// of the serialization entirely. Raw image bytes never appear here —
// only the count of resolved upstream images.
type signature struct {
	NodeKind     models.NodeKind `json:"nodeType"`
	Model        *string         `json:"model,omitempty"`
	Resolution   *string         `json:"resolution,omitempty"`
	AspectRatio  *string         `json:"aspectRatio,omitempty"`
	Provider     *string         `json:"provider,omitempty"`
	Temperature  *float64        `json:"temperature,omitempty"`
	PromptLength int             `json:"promptLength"`
	PromptDigest int32           `json:"promptHash"`
	ImageCount   int             `json:"imageCount"`
	Seed         int32           `json:"seed"`
}

// Digest computes a rolling 32-bit hash (h = h*31 + code) over the
// string's code points, wrapped to signed 32-bit. Cheap, stable, and
// non-cryptographic; collisions are possible and handled at lookup.
func Digest(s string) int32 {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	return h
}

// ComputeKey derives the cache key for a set of inputs. Pure function:
// equal inputs (including seed) always yield the same key across calls
// and process restarts. The prompt participates via its length and
// digest rather than its full text.
func ComputeKey(in models.KeyInputs) string {
	sig := signature{
		NodeKind:     in.NodeKind,
		Model:        in.Model,
		Resolution:   in.Resolution,
		AspectRatio:  in.AspectRatio,
		Provider:     in.Provider,
		Temperature:  in.Temperature,
		PromptLength: len(in.Prompt),
		PromptDigest: abs(Digest(in.Prompt)),
		ImageCount:   in.ImageCount,
		Seed:         in.Seed,
	}

	// Struct marshaling preserves declaration order, so the serialized
	// form is deterministic.
	data, _ := json.Marshal(sig)
	return fmt.Sprintf("%s-%s-%d", in.NodeKind, in.NodeID, abs(Digest(string(data))))
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
