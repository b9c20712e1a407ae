package models

// HistoryEntry is a pointer into durable payload storage plus enough
// metadata to render a carousel slot. The payload itself is never
// duplicated here — the graph-serialized state stays small.
type HistoryEntry struct {
	ID          string `json:"id"`
	Timestamp   int64  `json:"timestamp"` // unix ms
	Prompt      string `json:"prompt"`
	Model       string `json:"model,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
}
