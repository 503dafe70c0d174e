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

const huggingFaceInferenceURL = "https://api-inference.huggingface.co/models/"

// HuggingFaceProvider calls the Hugging Face inference API for a hosted
// text-generation model (gpt2 by default).
type HuggingFaceProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewHuggingFace(apiKey, model string) *HuggingFaceProvider {
	if model == "" {
		model = "gpt2"
	}
	return &HuggingFaceProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: huggingFaceInferenceURL,
		client:  &http.Client{Timeout: defaultChatTimeout},
	}
}

func (p *HuggingFaceProvider) Key() Key     { return KeyHuggingFace }
func (p *HuggingFaceProvider) Name() string { return "GPT-2 (Hugging Face)" }

type huggingFaceRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		MaxLength   int     `json:"max_length"`
		Temperature float64 `json:"temperature"`
	} `json:"parameters"`
}

func (p *HuggingFaceProvider) Generate(ctx context.Context, question string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("huggingface: %w", ErrNotConfigured)
	}

	var payload huggingFaceRequest
	payload.Inputs = question
	payload.Parameters.MaxLength = chatMaxTokens
	payload.Parameters.Temperature = chatTemperature
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("huggingface: marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, p.baseURL+p.model, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("huggingface: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("huggingface: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("huggingface: status %d: %s", resp.StatusCode, detail)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("huggingface: read response: %w", err)
	}

	// The API reports some failures with HTTP 200 and an error field.
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error != "" {
		return "", fmt.Errorf("huggingface: api error: %s", apiErr.Error)
	}

	var generations []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(raw, &generations); err != nil {
		return "", fmt.Errorf("huggingface: decode response: %w", err)
	}
	if len(generations) == 0 || generations[0].GeneratedText == "" {
		return "", fmt.Errorf("huggingface: empty generation")
	}
	return strings.TrimSpace(generations[0].GeneratedText), nil
}

func (p *HuggingFaceProvider) forTesting(baseURL string, timeout time.Duration) *HuggingFaceProvider {
	p.baseURL = baseURL
	p.client = &http.Client{Timeout: timeout}
	return p
}
