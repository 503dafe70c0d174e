package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHuggingFaceGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "gpt2") {
			t.Errorf("unexpected model path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `[{"generated_text": "The answer is 4. "}]`)
	}))
	defer srv.Close()

	p := NewHuggingFace("test-key", "gpt2").forTesting(srv.URL+"/", time.Second)

	got, err := p.Generate(context.Background(), "What is 2+2?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "The answer is 4." {
		t.Errorf("unexpected answer: %q", got)
	}
}

func TestHuggingFaceGenerateInBodyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": "model gpt2 is currently loading"}`)
	}))
	defer srv.Close()

	p := NewHuggingFace("test-key", "gpt2").forTesting(srv.URL+"/", time.Second)

	if _, err := p.Generate(context.Background(), "q"); err == nil {
		t.Fatal("expected error for in-body api error")
	}
}

func TestHuggingFaceGenerateMissingKey(t *testing.T) {
	p := NewHuggingFace("", "gpt2")

	_, err := p.Generate(context.Background(), "q")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
