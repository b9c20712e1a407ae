// Package generator calls external model providers to produce artifacts.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/nodebanana-ai/nodebanana/pkg/models"
)

// maxErrorLen bounds provider error text before it reaches node state.
const maxErrorLen = 300

// Request carries everything a provider needs for one generation call.
type Request struct {
	NodeKind    models.NodeKind
	Prompt      string
	Images      []string // resolved upstream images, in order
	Model       string
	Resolution  string
	AspectRatio string
	Temperature float64
	MaxTokens   int
	Seed        int32
}

// Generator produces an artifact for a request. Implementations should
// be idempotent-in-spirit: the same request and seed yield a
// consistent-enough result for caching to make sense, though not
// necessarily bit-exact.
type Generator interface {
	Generate(ctx context.Context, req Request) (*models.Artifact, error)
}

// Error is a provider-side generation failure. The message is
// sanitized and truncated before display.
type Error struct {
	Provider string
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("generation failed (%s): %s", e.Provider, e.Message)
}

// newError builds an Error with a cleaned-up message.
func newError(provider, message string) *Error {
	message = strings.TrimSpace(message)
	if runes := []rune(message); len(runes) > maxErrorLen {
		message = string(runes[:maxErrorLen]) + "…"
	}
	if message == "" {
		message = "provider returned no usable output"
	}
	return &Error{Provider: provider, Message: message}
}

// Dispatcher routes requests to a kind-specific generator.
type Dispatcher struct {
	image Generator
	text  Generator
}

// NewDispatcher wires one generator per node kind.
func NewDispatcher(image, text Generator) *Dispatcher {
	return &Dispatcher{image: image, text: text}
}

func (d *Dispatcher) Generate(ctx context.Context, req Request) (*models.Artifact, error) {
	switch req.NodeKind {
	case models.TextGeneration:
		if d.text == nil {
			return nil, newError("dispatcher", "no text generator configured")
		}
		return d.text.Generate(ctx, req)
	case models.ImageGeneration:
		if d.image == nil {
			return nil, newError("dispatcher", "no image generator configured")
		}
		return d.image.Generate(ctx, req)
	default:
		return nil, newError("dispatcher", fmt.Sprintf("node kind %q cannot generate", req.NodeKind))
	}
}
