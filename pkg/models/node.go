package models

// NodeKind identifies what a graph node does. The generator kinds
// (ImageGeneration, TextGeneration) are the only ones the engine runs;
// the rest feed inputs into them.
type NodeKind string

const (
	ImageGeneration NodeKind = "image-generation"
	TextGeneration  NodeKind = "text-generation"
	ImageInput      NodeKind = "image-input"
	Annotation      NodeKind = "annotation"
	Prompt          NodeKind = "prompt"
	Output          NodeKind = "output"
)

// IsGenerator reports whether nodes of this kind invoke the external generator.
func (k NodeKind) IsGenerator() bool {
	return k == ImageGeneration || k == TextGeneration
}

// NodeStatus is the run lifecycle of a generator node.
type NodeStatus string

const (
	StatusIdle     NodeStatus = "idle"
	StatusLoading  NodeStatus = "loading"
	StatusComplete NodeStatus = "complete"
	StatusError    NodeStatus = "error"
)

// AspectRatios lists every ratio the image models accept.
var AspectRatios = []string{"1:1", "2:3", "3:2", "3:4", "4:3", "4:5", "5:4", "9:16", "16:9", "21:9"}

// Resolutions supported by the pro image model.
var Resolutions = []string{"1K", "2K", "4K"}

const (
	DefaultImageModel = "nano-banana"
	ProImageModel     = "nano-banana-pro"
)
