// Package fallback provides a pluggable interface for generative
// fallback providers. The core only ever sees the reply content and the
// provider's self-reported confidence.
package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Reply is a generated answer plus the provider's confidence hint.
// Self-reported confidence is notoriously uncalibrated; the arbiter
// treats it as a hint only.
type Reply struct {
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

// Generator produces free-text answers for queries the knowledge index
// cannot cover.
type Generator interface {
	Generate(ctx context.Context, query string) (Reply, error)
}

// --- Static provider ---

// StaticGenerator returns a canned reply. It stands in for a real model
// in tests and offline demos.
type StaticGenerator struct {
	Confidence float64
}

// NewStaticGenerator creates a generator with a fixed confidence hint.
func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{Confidence: 0.65}
}

func (g *StaticGenerator) Generate(_ context.Context, query string) (Reply, error) {
	return Reply{
		Content:    fmt.Sprintf("[generated] Based on general knowledge about %q: this answer was produced without structured facts and may be imprecise.", query),
		Confidence: g.Confidence,
	}, nil
}

// --- Anthropic provider ---

// AnthropicGenerator calls the Anthropic Messages API.
type AnthropicGenerator struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicGenerator creates a generator backed by the Anthropic API.
func NewAnthropicGenerator(apiKey, model string) *AnthropicGenerator {
	if model == "" {
		model = "claude-sonnet-4-5"
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicGenerator{client: &client, model: model}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, query string) (Reply, error) {
	resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(query)),
		},
	})
	if err != nil {
		return Reply{}, fmt.Errorf("anthropic request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	// The API reports no confidence; use the conventional mid-range hint.
	return Reply{Content: sb.String(), Confidence: 0.65}, nil
}

// --- Ollama provider ---

// OllamaGenerator uses a local Ollama instance.
type OllamaGenerator struct {
	baseURL string
	model   string
	client  *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// NewOllamaGenerator creates a generator using Ollama's generate API.
func NewOllamaGenerator(model string) *OllamaGenerator {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	return &OllamaGenerator{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *OllamaGenerator) Generate(ctx context.Context, query string) (Reply, error) {
	body, _ := json.Marshal(ollamaRequest{Model: g.model, Prompt: query})
	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return Reply{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		return Reply{}, fmt.Errorf("ollama error %d: %s", resp.StatusCode, string(b))
	}

	var result ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Reply{}, err
	}
	return Reply{Content: result.Response, Confidence: 0.65}, nil
}

// --- Factory ---

// NewFromEnv creates a generator from environment variables.
// CBMA_LLM_PROVIDER: "anthropic" | "ollama" | "" (static)
// CBMA_LLM_MODEL: model name
// ANTHROPIC_API_KEY: for the anthropic provider
func NewFromEnv() Generator {
	model := os.Getenv("CBMA_LLM_MODEL")
	switch os.Getenv("CBMA_LLM_PROVIDER") {
	case "anthropic":
		return NewAnthropicGenerator(os.Getenv("ANTHROPIC_API_KEY"), model)
	case "ollama":
		return NewOllamaGenerator(model)
	default:
		return NewStaticGenerator()
	}
}
