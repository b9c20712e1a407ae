// Package graph holds the generation graph model and input resolution.
package graph

import (
	"encoding/json"
	"fmt"

	"github.com/nodebanana-ai/nodebanana/pkg/models"
)

// HandleType distinguishes a node's input sockets.
type HandleType string

const (
	HandleImage HandleType = "image"
	HandleText  HandleType = "text"
)

// Edge wires a source node's output into a target node's input handle.
type Edge struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	Target       string     `json:"target"`
	TargetHandle HandleType `json:"targetHandle"`
}

// NodeData is the kind-specific payload of a node. Concrete types opt
// into the ImageSource / TextSource capabilities below; the resolver
// dispatches on those instead of branching on kind strings.
type NodeData interface {
	nodeData()
}

// ImageSource is implemented by node data that can feed an image
// downstream. A nil/empty result means "nothing to contribute yet".
type ImageSource interface {
	OutputImage() string
}

// TextSource is implemented by node data that can feed text downstream.
type TextSource interface {
	OutputText() string
}

// Node is a unit in the generation graph.
type Node struct {
	ID   string          `json:"id"`
	Kind models.NodeKind `json:"kind"`
	Data NodeData        `json:"data"`
}

// ImageInputData is a user-supplied source image.
type ImageInputData struct {
	Image    string `json:"image"`
	Filename string `json:"filename,omitempty"`
}

func (ImageInputData) nodeData() {}

func (d *ImageInputData) OutputImage() string { return d.Image }

// AnnotationData is an image run through the annotation editor; the
// annotated composite is what flows downstream.
type AnnotationData struct {
	SourceImage string `json:"sourceImage,omitempty"`
	Annotated   string `json:"outputImage"`
}

func (AnnotationData) nodeData() {}

func (d *AnnotationData) OutputImage() string { return d.Annotated }

// PromptData is a free-text prompt.
type PromptData struct {
	Prompt string `json:"prompt"`
}

func (PromptData) nodeData() {}

func (d *PromptData) OutputText() string { return d.Prompt }

// ImageGenData configures an image-generation node. Image holds the
// node's current output so downstream generators chain against live
// state, not the cache.
type ImageGenData struct {
	Model       string `json:"model"`
	Resolution  string `json:"resolution"`
	AspectRatio string `json:"aspectRatio"`
	Image       string `json:"outputImage,omitempty"`
}

func (ImageGenData) nodeData() {}

func (d *ImageGenData) OutputImage() string { return d.Image }

// TextGenData configures a text-generation node.
type TextGenData struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
	Text        string  `json:"outputText,omitempty"`
}

func (TextGenData) nodeData() {}

func (d *TextGenData) OutputText() string { return d.Text }

// OutputData is a terminal display node.
type OutputData struct {
	Image string `json:"image,omitempty"`
}

func (OutputData) nodeData() {}

// Graph is a set of nodes and the edges between them.
type Graph struct {
	Nodes []*Node
	Edges []Edge
}

// NodeByID returns the node with the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// GeneratorIDs returns the ids of all generator nodes in graph order.
func (g *Graph) GeneratorIDs() []string {
	var ids []string
	for _, n := range g.Nodes {
		if n.Kind.IsGenerator() {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// newNodeData constructs the data variant for a kind. Adding a node
// kind means adding a case here and a data type above.
func newNodeData(kind models.NodeKind, raw json.RawMessage) (NodeData, error) {
	var data NodeData
	switch kind {
	case models.ImageInput:
		data = &ImageInputData{}
	case models.Annotation:
		data = &AnnotationData{}
	case models.Prompt:
		data = &PromptData{}
	case models.ImageGeneration:
		data = &ImageGenData{}
	case models.TextGeneration:
		data = &TextGenData{}
	case models.Output:
		data = &OutputData{}
	default:
		return nil, fmt.Errorf("unknown node kind %q", kind)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", kind, err)
		}
	}
	return data, nil
}
