package models

// Artifact is a generated output payload. Image holds a data URL or
// storage reference, Text holds generated text. At least one is set.
type Artifact struct {
	Image string `json:"image,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Empty reports whether the artifact carries no payload at all.
func (a Artifact) Empty() bool {
	return a.Image == "" && a.Text == ""
}
