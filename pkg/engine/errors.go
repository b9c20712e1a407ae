package engine

import "fmt"

// ValidationError reports that a node is missing required inputs. No
// cache access or generator call happens when one is raised.
type ValidationError struct {
	NodeID string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("node %s: %s", e.NodeID, e.Reason)
}

// HistoryFetchError reports that a past artifact failed to load during
// carousel navigation. The node's status and displayed output are left
// unchanged.
type HistoryFetchError struct {
	NodeID  string
	EntryID string
	Err     error
}

func (e *HistoryFetchError) Error() string {
	return fmt.Sprintf("node %s: load history entry %s: %v", e.NodeID, e.EntryID, e.Err)
}

func (e *HistoryFetchError) Unwrap() error { return e.Err }
