package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/nodebanana-ai/nodebanana/pkg/models"
)

// Gateway generates images through an HTTP generation endpoint,
// falling back across providers in route order.
type Gateway struct {
	router *Router
	client *http.Client
}

// NewGateway creates a Gateway with a default HTTP client. Image
// generation is slow; the timeout reflects that.
func NewGateway(router *Router) *Gateway {
	return &Gateway{
		router: router,
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

type gatewayRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Images      []string `json:"images,omitempty"`
	AspectRatio string   `json:"aspectRatio,omitempty"`
	Resolution  string   `json:"resolution,omitempty"`
	Seed        int32    `json:"seed"`
}

type gatewayResponse struct {
	Image string `json:"image,omitempty"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// Generate posts the request to each target in the fallback chain until
// one succeeds.
func (g *Gateway) Generate(ctx context.Context, req Request) (*models.Artifact, error) {
	targets, err := g.router.Resolve(req.Model)
	if err != nil {
		return nil, newError("router", err.Error())
	}

	var lastErr *Error
	for _, target := range targets {
		artifact, gerr := g.call(ctx, target, req)
		if gerr != nil {
			log.Printf("generator: provider %s failed: %v, trying next", target.Provider.Name, gerr)
			lastErr = gerr
			continue
		}
		return artifact, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, newError("gateway", "all providers failed")
}

func (g *Gateway) call(ctx context.Context, target Target, req Request) (*models.Artifact, *Error) {
	body, err := json.Marshal(gatewayRequest{
		Model:       target.Model,
		Prompt:      req.Prompt,
		Images:      req.Images,
		AspectRatio: req.AspectRatio,
		Resolution:  req.Resolution,
		Seed:        req.Seed,
	})
	if err != nil {
		return nil, newError(target.Provider.Name, err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		target.Provider.URL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return nil, newError(target.Provider.Name, err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if target.Provider.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+target.Provider.APIKey)
	}

	res, err := g.client.Do(httpReq)
	if err != nil {
		return nil, newError(target.Provider.Name, err.Error())
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, newError(target.Provider.Name, err.Error())
	}

	var decoded gatewayResponse
	if err := json.Unmarshal(resBody, &decoded); err != nil {
		return nil, newError(target.Provider.Name,
			fmt.Sprintf("status %d: unreadable response", res.StatusCode))
	}

	if res.StatusCode != http.StatusOK {
		msg := decoded.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", res.StatusCode)
		}
		return nil, newError(target.Provider.Name, msg)
	}

	artifact := &models.Artifact{Image: decoded.Image, Text: decoded.Text}
	if artifact.Empty() {
		return nil, newError(target.Provider.Name, "provider returned no usable output")
	}
	return artifact, nil
}
