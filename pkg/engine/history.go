package engine

import (
	"context"

	"github.com/nodebanana-ai/nodebanana/pkg/graph"
	"github.com/nodebanana-ai/nodebanana/pkg/models"
)

// Direction selects which neighbor NavigateHistory moves to.
type Direction int

const (
	Prev Direction = iota
	Next
)

// NavigateHistory moves a node's history selection one step and loads
// that entry's artifact from payload storage. Navigation wraps at both
// ends. If the payload cannot be loaded, the current output, selection,
// and status all stay as they were and a HistoryFetchError is returned.
func (e *Engine) NavigateHistory(ctx context.Context, nodeID string, dir Direction) error {
	e.mu.Lock()
	st := e.state(nodeID)
	if st.HistoryLoading {
		// A navigation is already fetching; drop this one.
		e.mu.Unlock()
		return nil
	}
	n := len(st.History)
	if n < 2 {
		e.mu.Unlock()
		return nil
	}

	idx := st.SelectedHistoryIndex
	switch dir {
	case Prev:
		idx = (idx - 1 + n) % n
	case Next:
		idx = (idx + 1) % n
	}
	entry := st.History[idx]
	st.HistoryLoading = true
	token := st.token
	e.mu.Unlock()

	artifact, err := e.store.Load(ctx, entry.ID)

	e.mu.Lock()
	defer e.mu.Unlock()
	st = e.state(nodeID)
	st.HistoryLoading = false
	if st.token != token {
		return nil
	}
	if err != nil {
		return &HistoryFetchError{NodeID: nodeID, EntryID: entry.ID, Err: err}
	}

	st.SelectedHistoryIndex = idx
	st.Output = *artifact
	st.Status = models.StatusComplete
	st.Error = ""
	e.setNodeOutput(nodeID, *artifact)
	return nil
}

// History returns a copy of a node's history entries, newest last.
func (e *Engine) History(nodeID string) []models.HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.state(nodeID)
	return append([]models.HistoryEntry(nil), st.History...)
}

// setNodeOutput writes an artifact into the node's live graph data.
// Callers must hold e.mu.
func (e *Engine) setNodeOutput(nodeID string, artifact models.Artifact) {
	node := e.graph.NodeByID(nodeID)
	if node == nil {
		return
	}
	switch data := node.Data.(type) {
	case *graph.ImageGenData:
		data.Image = artifact.Image
	case *graph.TextGenData:
		data.Text = artifact.Text
	}
}
