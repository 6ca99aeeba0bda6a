// ABOUTME: Gemini REST client implementing the Generator interface
// ABOUTME: Tries models in order, falling through on quota and server errors

package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Generator errors
var (
	// ErrQuota is returned when every candidate model is rate-limited.
	ErrQuota = errors.New("generation quota exhausted")

	// ErrAuth is returned for an invalid or missing API key. Not retried
	// against other models: the key is wrong, not the model.
	ErrAuth = errors.New("generation auth failed")

	// ErrNetwork is returned when the API could not be reached.
	ErrNetwork = errors.New("generation service unreachable")

	// ErrEmptyResponse is returned when the API answers with no candidates.
	ErrEmptyResponse = errors.New("generation returned no content")
)

// DefaultEndpoint is the Gemini REST API base URL.
const DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// DefaultModels is the ordered fallback list used when none is configured.
var DefaultModels = []string{"gemini-2.0-flash-exp", "gemini-1.5-flash"}

const requestTimeout = 60 * time.Second

// Generator produces text from a prompt. Implementations must be safe
// for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClient calls the Gemini generateContent REST endpoint. Models
// are tried in order; quota and server errors fall through to the next
// model, auth errors stop immediately.
type GeminiClient struct {
	apiKey   string
	endpoint string
	models   []string
	client   *http.Client
	logger   *slog.Logger
}

// NewGeminiClient creates a client. Empty endpoint and models fall back
// to the defaults.
func NewGeminiClient(apiKey, endpoint string, models []string) *GeminiClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if len(models) == 0 {
		models = DefaultModels
	}
	return &GeminiClient{
		apiKey:   apiKey,
		endpoint: endpoint,
		models:   models,
		client:   &http.Client{Timeout: requestTimeout},
		logger:   slog.Default().With("component", "genai"),
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt to each configured model until one answers.
// The response is requested as JSON so callers can parse structured
// idea lists out of it.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for _, model := range g.models {
		text, err := g.generateWith(ctx, model, prompt)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, ErrAuth) || ctx.Err() != nil {
			return "", err
		}

		g.logger.Warn("model failed, trying next", "model", model, "error", err)
		lastErr = err
	}
	return "", fmt.Errorf("all models failed: %w", lastErr)
}

func (g *GeminiClient) generateWith(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			Temperature:      0.9,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.endpoint, model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrAuth
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrQuota
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, data)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
