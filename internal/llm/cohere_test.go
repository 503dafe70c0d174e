package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCohereGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		var req cohereRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Prompt != "What is 2+2?" || req.MaxTokens != 150 {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(cohereResponse{Text: " 4\n"})
	}))
	defer srv.Close()

	p := NewCohere("test-key").forTesting(srv.URL, time.Second)

	got, err := p.Generate(context.Background(), "What is 2+2?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "4" {
		t.Errorf("expected trimmed answer %q, got %q", "4", got)
	}
}

func TestCohereGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewCohere("test-key").forTesting(srv.URL, time.Second)

	if _, err := p.Generate(context.Background(), "q"); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestCohereGenerateMissingKey(t *testing.T) {
	p := NewCohere("")

	_, err := p.Generate(context.Background(), "q")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
