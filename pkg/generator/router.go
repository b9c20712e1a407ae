package generator

import (
	"fmt"

	"github.com/nodebanana-ai/nodebanana/pkg/config"
)

// Target is a resolved provider and model to try.
type Target struct {
	Provider config.Provider
	Model    string
}

// Router resolves requested model names to ordered provider+model
// fallback chains.
type Router struct {
	cfg *config.Config
}

// NewRouter creates a Router from the given configuration.
func NewRouter(cfg *config.Config) *Router {
	return &Router{cfg: cfg}
}

// Resolve returns an ordered list of targets for the requested model.
// If the model matches a configured route, the route's targets are
// returned. Otherwise the first provider is used with the original
// model name.
func (r *Router) Resolve(requestedModel string) ([]Target, error) {
	if len(r.cfg.Providers) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}

	providerIndex := make(map[string]config.Provider, len(r.cfg.Providers))
	for _, p := range r.cfg.Providers {
		providerIndex[p.Name] = p
	}

	for _, route := range r.cfg.Router.Routes {
		if route.Model != requestedModel {
			continue
		}
		var targets []Target
		for _, t := range route.Targets {
			provider, ok := providerIndex[t.Provider]
			if !ok {
				continue // skip unknown providers
			}
			model := t.Model
			if model == "" {
				model = requestedModel
			}
			targets = append(targets, Target{Provider: provider, Model: model})
		}
		if len(targets) == 0 {
			return nil, fmt.Errorf("route %q: all providers unknown", requestedModel)
		}
		return targets, nil
	}

	return []Target{{Provider: r.cfg.Providers[0], Model: requestedModel}}, nil
}
