package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nodebanana-ai/nodebanana/pkg/models"
)

// workflowFile is the on-disk workflow export format.
type workflowFile struct {
	Nodes []workflowNode `json:"nodes"`
	Edges []Edge         `json:"edges"`
}

type workflowNode struct {
	ID   string          `json:"id"`
	Kind models.NodeKind `json:"kind"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// exportKinds maps the editor's exported node type names onto kinds.
// Exports carry a "type" field with these names; files written against
// this module's own format use "kind" with the internal names instead.
var exportKinds = map[string]models.NodeKind{
	"imageInput":  models.ImageInput,
	"annotation":  models.Annotation,
	"prompt":      models.Prompt,
	"nanoBanana":  models.ImageGeneration,
	"llmGenerate": models.TextGeneration,
	"output":      models.Output,
}

// nodeKind resolves the node's kind from either field, preferring the
// internal "kind" name when both are present.
func (wn workflowNode) nodeKind() (models.NodeKind, error) {
	if wn.Kind != "" {
		return wn.Kind, nil
	}
	if kind, ok := exportKinds[wn.Type]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("unknown node type %q", wn.Type)
}

// LoadWorkflow reads an exported workflow JSON file into a Graph.
func LoadWorkflow(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow: %w", err)
	}
	return ParseWorkflow(data)
}

// ParseWorkflow decodes workflow JSON into a Graph, instantiating the
// kind-specific data variant for each node.
func ParseWorkflow(data []byte) (*Graph, error) {
	var wf workflowFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse workflow: %w", err)
	}

	g := &Graph{Edges: wf.Edges}
	for _, wn := range wf.Nodes {
		kind, err := wn.nodeKind()
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", wn.ID, err)
		}
		nodeData, err := newNodeData(kind, wn.Data)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", wn.ID, err)
		}
		g.Nodes = append(g.Nodes, &Node{ID: wn.ID, Kind: kind, Data: nodeData})
	}

	for _, e := range wf.Edges {
		if g.NodeByID(e.Source) == nil || g.NodeByID(e.Target) == nil {
			return nil, fmt.Errorf("edge %s references unknown node", e.ID)
		}
	}
	return g, nil
}
