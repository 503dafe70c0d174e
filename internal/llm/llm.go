package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Key identifies a configured LLM backend. The set is closed: adding a
// backend means adding a constant here and registering its provider.
type Key string

const (
	KeyOpenAI      Key = "openai"
	KeyCohere      Key = "cohere"
	KeyHuggingFace Key = "huggingface"
)

// ParseKey maps a wire string back to a known Key.
func ParseKey(s string) (Key, bool) {
	switch Key(s) {
	case KeyOpenAI, KeyCohere, KeyHuggingFace:
		return Key(s), true
	}
	return "", false
}

// Provider is a minimal text-in/text-out adapter over one LLM backend.
type Provider interface {
	Key() Key
	Name() string
	Generate(ctx context.Context, question string) (string, error)
}

// ErrNotConfigured marks a provider whose API key is missing. Detected
// before any network call is made.
var ErrNotConfigured = errors.New("api key not set")

// Answer strings returned to users when a backend call cannot succeed.
const (
	AnswerBackendError = "Sorry, there was an error with the language model."
	AnswerUnknownModel = "Invalid language model selected."
)

// Registry holds the configured providers in a fixed presentation order.
type Registry struct {
	log       *slog.Logger
	order     []Key
	providers map[Key]Provider
}

func NewRegistry(log *slog.Logger, providers ...Provider) *Registry {
	r := &Registry{log: log, providers: make(map[Key]Provider, len(providers))}
	for _, p := range providers {
		if _, dup := r.providers[p.Key()]; dup {
			continue
		}
		r.order = append(r.order, p.Key())
		r.providers[p.Key()] = p
	}
	return r
}

// Keys returns provider keys in registration order.
func (r *Registry) Keys() []Key {
	out := make([]Key, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Has(key Key) bool {
	_, ok := r.providers[key]
	return ok
}

// Name returns the display name for a key. Historical records may carry
// keys of providers that are no longer configured; those fall back to the
// raw key so aggregate views keep working.
func (r *Registry) Name(key Key) string {
	if p, ok := r.providers[key]; ok {
		return p.Name()
	}
	return string(key)
}

// Names returns the key-to-display-name mapping for chart labeling.
func (r *Registry) Names() map[string]string {
	out := make(map[string]string, len(r.order))
	for _, k := range r.order {
		out[string(k)] = r.providers[k].Name()
	}
	return out
}

// Answer is the never-fails boundary of the adapter layer. Every failure
// degrades to a human-readable answer string which flows into the rating
// pipeline like any normal answer.
func (r *Registry) Answer(ctx context.Context, key Key, question string) string {
	p, ok := r.providers[key]
	if !ok {
		r.log.Error("answer requested for unknown provider", "model", key)
		return AnswerUnknownModel
	}
	text, err := p.Generate(ctx, question)
	if err != nil {
		r.log.Error("provider call failed", "model", key, "err", err)
		if errors.Is(err, ErrNotConfigured) {
			return fmt.Sprintf("Error: %s API key not set.", p.Name())
		}
		return AnswerBackendError
	}
	return text
}
