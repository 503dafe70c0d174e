package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const cohereGenerateURL = "https://api.cohere.ai/generate"

// CohereProvider calls the Cohere generate endpoint with a plain
// bearer-token JSON POST; there is no SDK dependency to isolate.
type CohereProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewCohere(apiKey string) *CohereProvider {
	return &CohereProvider{
		apiKey:  apiKey,
		baseURL: cohereGenerateURL,
		client:  &http.Client{Timeout: defaultChatTimeout},
	}
}

func (p *CohereProvider) Key() Key     { return KeyCohere }
func (p *CohereProvider) Name() string { return "Cohere" }

type cohereRequest struct {
	Prompt            string   `json:"prompt"`
	MaxTokens         int      `json:"max_tokens"`
	Temperature       float64  `json:"temperature"`
	K                 int      `json:"k"`
	P                 float64  `json:"p"`
	StopSequences     []string `json:"stop_sequences"`
	ReturnLikelihoods string   `json:"return_likelihoods"`
}

type cohereResponse struct {
	Text string `json:"text"`
}

func (p *CohereProvider) Generate(ctx context.Context, question string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("cohere: %w", ErrNotConfigured)
	}

	body, err := json.Marshal(cohereRequest{
		Prompt:            question,
		MaxTokens:         chatMaxTokens,
		Temperature:       chatTemperature,
		K:                 0,
		P:                 0.75,
		StopSequences:     []string{},
		ReturnLikelihoods: "NONE",
	})
	if err != nil {
		return "", fmt.Errorf("cohere: marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("cohere: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cohere: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("cohere: status %d: %s", resp.StatusCode, detail)
	}

	var out cohereResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("cohere: decode response: %w", err)
	}
	if out.Text == "" {
		return "", fmt.Errorf("cohere: empty generation")
	}
	return strings.TrimSpace(out.Text), nil
}

// forTesting points the provider at a fake endpoint.
func (p *CohereProvider) forTesting(baseURL string, timeout time.Duration) *CohereProvider {
	p.baseURL = baseURL
	p.client = &http.Client{Timeout: timeout}
	return p
}
