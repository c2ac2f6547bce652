// Package insight periodically derives operator recommendations from
// the current plant state.
//
// Defines an Analyzer interface and an Ollama-backed implementation.
// The interface allows swapping analysis backends without changing the
// scheduler; when the backend is unreachable or returns garbage the
// scheduler degrades to locally generated content.
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

// Snapshot is the plant state handed to an analyzer.
type Snapshot struct {
	Readings []models.Reading
	Alerts   []*models.Alert
}

// Result is one analysis outcome before confidence clamping.
type Result struct {
	Title       string
	Description string
	Priority    models.Priority
	Confidence  int
	Category    models.Category
}

// Analyzer produces one recommendation from a plant state snapshot.
type Analyzer interface {
	Analyze(ctx context.Context, snap Snapshot) (*Result, error)
}

// OllamaAnalyzer generates recommendations using a local Ollama
// server. Keeps plant telemetry on-premises with no external API
// costs.
type OllamaAnalyzer struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaAnalyzer creates an analyzer that calls Ollama's generate
// API. Model should be a small instruct model; the per-call deadline
// comes from the caller's context.
func NewOllamaAnalyzer(baseURL, model string) *OllamaAnalyzer {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaAnalyzer{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// analyzerPayload is the JSON shape the model is instructed to emit.
type analyzerPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Confidence  int    `json:"confidence"`
	Category    string `json:"category"`
}

// Analyze sends the snapshot summary to the model and parses the
// structured reply.
func (a *OllamaAnalyzer) Analyze(ctx context.Context, snap Snapshot) (*Result, error) {
	reqBody, err := json.Marshal(ollamaGenerateRequest{
		Model:  a.model,
		Prompt: buildPrompt(snap),
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return nil, fmt.Errorf("insight: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("insight: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("insight: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("insight: status %d: %s", resp.StatusCode, string(body))
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("insight: decode response: %w", err)
	}
	if result.Response == "" {
		return nil, fmt.Errorf("insight: empty model response")
	}

	var payload analyzerPayload
	if err := json.Unmarshal([]byte(result.Response), &payload); err != nil {
		return nil, fmt.Errorf("insight: parse model output: %w", err)
	}
	if payload.Title == "" || payload.Description == "" {
		return nil, fmt.Errorf("insight: incomplete model output")
	}

	return &Result{
		Title:       payload.Title,
		Description: payload.Description,
		Priority:    models.ParsePriority(payload.Priority),
		Confidence:  payload.Confidence,
		Category:    parseCategory(payload.Category),
	}, nil
}

func parseCategory(s string) models.Category {
	switch s {
	case "anomaly":
		return models.CategoryAnomaly
	case "performance":
		return models.CategoryPerformance
	case "maintenance":
		return models.CategoryMaintenance
	case "safety":
		return models.CategorySafety
	default:
		return models.CategoryOptimization
	}
}
