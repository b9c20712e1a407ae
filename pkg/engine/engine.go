// Package engine runs generator nodes: it resolves upstream inputs,
// consults the generation cache, drives the external generator, and
// maintains per-node run state and history.
package engine

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nodebanana-ai/nodebanana/pkg/generator"
	"github.com/nodebanana-ai/nodebanana/pkg/graph"
	"github.com/nodebanana-ai/nodebanana/pkg/models"
	"github.com/nodebanana-ai/nodebanana/pkg/storage"
)

// Cache is the slice of the generation cache store the engine uses.
// A nil Cache means caching is disabled and every run regenerates.
type Cache interface {
	Get(ctx context.Context, in models.KeyInputs) (*models.Generation, error)
	Save(ctx context.Context, gen models.Generation) (string, error)
	ClearByNode(ctx context.Context, nodeID string) (int64, error)
}

// State is the per-node runtime state exposed to the surrounding
// editor for rendering. It is transient — never persisted in the cache
// store — and returned by value.
type State struct {
	Status               models.NodeStatus
	Error                string
	Seed                 int32
	SeedFixed            bool
	LastSeed             *int32
	Cached               bool
	Output               models.Artifact
	History              []models.HistoryEntry
	SelectedHistoryIndex int
	HistoryLoading       bool
}

// nodeState adds engine-internal bookkeeping to the exposed State.
type nodeState struct {
	State
	// token identifies the latest run; a result arriving with an older
	// token is stale and discarded.
	token uint64
}

// Engine is the generation orchestrator. Construct one per graph with
// New and share it; all methods are safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	graph  *graph.Graph
	cache  Cache
	store  storage.Store
	gen    generator.Generator
	rng    *rand.Rand
	states map[string]*nodeState
}

// New creates an Engine over the given graph and collaborators.
// cache may be nil to disable caching.
func New(g *graph.Graph, cache Cache, store storage.Store, gen generator.Generator) *Engine {
	return &Engine{
		graph:  g,
		cache:  cache,
		store:  store,
		gen:    gen,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		states: make(map[string]*nodeState),
	}
}

// state returns the node's state record, creating an idle one on first
// touch. Callers must hold e.mu.
func (e *Engine) state(nodeID string) *nodeState {
	st, ok := e.states[nodeID]
	if !ok {
		st = &nodeState{State: State{Status: models.StatusIdle}}
		e.states[nodeID] = st
	}
	return st
}

// State returns a copy of a node's runtime state for rendering.
func (e *Engine) State(nodeID string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.state(nodeID)
	out := st.State
	out.History = append([]models.HistoryEntry(nil), st.History...)
	return out
}

// Run executes a generator node. A node already loading ignores the
// request (dropped, not queued). Identical configuration plus an
// identical seed short-circuits to the cached artifact without calling
// the external generator; cache storage failures degrade to a miss. A
// failed generation never clears a previously successful output.
func (e *Engine) Run(ctx context.Context, nodeID string) error {
	e.mu.Lock()

	node := e.graph.NodeByID(nodeID)
	if node == nil || !node.Kind.IsGenerator() {
		e.mu.Unlock()
		return &ValidationError{NodeID: nodeID, Reason: "not a generator node"}
	}

	st := e.state(nodeID)
	if st.Status == models.StatusLoading {
		// Duplicate run while in flight: drop it.
		e.mu.Unlock()
		return nil
	}

	resolved := graph.ResolveInputs(nodeID, e.graph)
	if resolved.Prompt == "" {
		st.Status = models.StatusError
		st.Error = "no prompt connected"
		e.mu.Unlock()
		return &ValidationError{NodeID: nodeID, Reason: "no prompt connected"}
	}

	// Regenerate always draws a fresh seed unless the user pinned it.
	if st.SeedFixed && st.LastSeed != nil {
		st.Seed = *st.LastSeed
	} else {
		st.Seed = e.rng.Int31()
	}
	seed := st.Seed
	st.LastSeed = &seed

	inputs := buildKeyInputs(node, resolved, seed)
	req := buildRequest(node, resolved, seed)

	st.Status = models.StatusLoading
	st.Error = ""
	st.Cached = false
	st.token++
	token := st.token
	e.mu.Unlock()

	if cached := e.lookup(ctx, inputs); cached != nil {
		e.applyHit(nodeID, token, resolved.Prompt, cached)
		return nil
	}

	artifact, genErr := e.gen.Generate(ctx, req)

	e.mu.Lock()
	defer e.mu.Unlock()
	st = e.state(nodeID)
	if st.token != token {
		// The node was reset or re-run while this call was in flight;
		// the result is stale.
		log.Printf("engine: discarding stale result for node %s", nodeID)
		return nil
	}

	if genErr != nil {
		st.Status = models.StatusError
		st.Error = genErr.Error()
		return genErr
	}

	payloadID := "gen_" + uuid.NewString()
	if err := e.store.Save(ctx, payloadID, *artifact); err != nil {
		log.Printf("engine: persist payload %s: %v", payloadID, err)
	}
	if e.cache != nil {
		gen := models.Generation{
			PayloadID: payloadID,
			Seed:      seed,
			NodeID:    nodeID,
			NodeKind:  node.Kind,
			Inputs:    inputs,
			Output:    *artifact,
		}
		if _, err := e.cache.Save(ctx, gen); err != nil {
			log.Printf("engine: cache save for node %s: %v", nodeID, err)
		}
	}

	e.complete(node, st, resolved.Prompt, payloadID, *artifact, false)
	return nil
}

// lookup queries the cache, treating any storage error as a miss.
func (e *Engine) lookup(ctx context.Context, inputs models.KeyInputs) *models.Generation {
	if e.cache == nil {
		return nil
	}
	cached, err := e.cache.Get(ctx, inputs)
	if err != nil {
		log.Printf("engine: cache unavailable, regenerating: %v", err)
		return nil
	}
	return cached
}

// applyHit installs a cached artifact as the node's output.
func (e *Engine) applyHit(nodeID string, token uint64, prompt string, cached *models.Generation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.state(nodeID)
	if st.token != token {
		return
	}
	node := e.graph.NodeByID(nodeID)
	e.complete(node, st, prompt, cached.PayloadID, cached.Output, true)
}

// complete records a successful output: node state, the node's live
// graph data (so downstream generators can chain off it), and history.
// Callers must hold e.mu.
func (e *Engine) complete(node *graph.Node, st *nodeState, prompt, payloadID string, artifact models.Artifact, fromCache bool) {
	st.Status = models.StatusComplete
	st.Error = ""
	st.Cached = fromCache
	st.Output = artifact

	entry := models.HistoryEntry{
		ID:        payloadID,
		Timestamp: time.Now().UnixMilli(),
		Prompt:    prompt,
	}
	switch data := node.Data.(type) {
	case *graph.ImageGenData:
		data.Image = artifact.Image
		entry.Model = data.Model
		entry.AspectRatio = data.AspectRatio
	case *graph.TextGenData:
		data.Text = artifact.Text
		entry.Model = data.Model
	}
	st.History = append(st.History, entry)
	st.SelectedHistoryIndex = len(st.History) - 1
}

// ToggleSeedFixed flips seed pinning and returns the new value.
// Pinning captures the current last seed; unpinning only changes
// future-run behavior. Neither direction triggers a run.
func (e *Engine) ToggleSeedFixed(nodeID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.state(nodeID)
	st.SeedFixed = !st.SeedFixed
	st.Cached = false
	return st.SeedFixed
}

// ClearNodeCache removes every cached generation for a node and resets
// its seed pinning — a pinned seed with no cached artifact only
// suggests a determinism the cache can no longer provide. Any in-flight
// run for the node is invalidated.
func (e *Engine) ClearNodeCache(ctx context.Context, nodeID string) (int64, error) {
	var n int64
	if e.cache != nil {
		var err error
		n, err = e.cache.ClearByNode(ctx, nodeID)
		if err != nil {
			return 0, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.state(nodeID)
	st.SeedFixed = false
	st.LastSeed = nil
	st.Cached = false
	st.token++
	if st.Status == models.StatusLoading {
		st.Status = models.StatusIdle
	}
	return n, nil
}

// buildKeyInputs derives the cache key material from the node's
// configuration and the shape of its resolved inputs. Image content
// stays out — only the count participates.
func buildKeyInputs(node *graph.Node, resolved graph.ResolvedInputs, seed int32) models.KeyInputs {
	in := models.KeyInputs{
		NodeID:     node.ID,
		NodeKind:   node.Kind,
		Prompt:     resolved.Prompt,
		ImageCount: len(resolved.Images),
		Seed:       seed,
	}
	switch data := node.Data.(type) {
	case *graph.ImageGenData:
		in.Model = &data.Model
		in.Resolution = &data.Resolution
		in.AspectRatio = &data.AspectRatio
	case *graph.TextGenData:
		in.Model = &data.Model
		in.Provider = &data.Provider
		in.Temperature = &data.Temperature
	}
	return in
}

// buildRequest assembles the generator call for a node.
func buildRequest(node *graph.Node, resolved graph.ResolvedInputs, seed int32) generator.Request {
	req := generator.Request{
		NodeKind: node.Kind,
		Prompt:   resolved.Prompt,
		Seed:     seed,
	}
	for _, img := range resolved.Images {
		req.Images = append(req.Images, img.Image)
	}
	switch data := node.Data.(type) {
	case *graph.ImageGenData:
		req.Model = data.Model
		req.Resolution = data.Resolution
		req.AspectRatio = data.AspectRatio
	case *graph.TextGenData:
		req.Model = data.Model
		req.Temperature = data.Temperature
		req.MaxTokens = data.MaxTokens
	}
	return req
}
