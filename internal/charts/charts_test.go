package charts

import (
	"bytes"
	"errors"
	"testing"

	"ratebot/internal/store"
)

var testNames = map[string]string{
	"cohere":      "Cohere",
	"huggingface": "GPT-2 (Hugging Face)",
}

func sampleRecords() []store.Rating {
	return []store.Rating{
		{ID: 1, UserID: 1, Question: "What is 2+2?", Answer: "4", Rating: 2, Model: "cohere"},
		{ID: 2, UserID: 1, Question: "Capital of France?", Answer: "Paris", Rating: 2, Model: "cohere"},
		{ID: 3, UserID: 2, Question: "Largest planet?", Answer: "Saturn", Rating: 0, Model: "cohere"},
		{ID: 4, UserID: 2, Question: "What is 2+2?", Answer: "twenty-two", Rating: 1, Model: "huggingface"},
		// Stale provider key without a display name.
		{ID: 5, UserID: 3, Question: "q", Answer: "a", Rating: 1, Model: "openai"},
	}
}

func assertPNG(t *testing.T, data []byte) {
	t.Helper()
	if len(data) == 0 {
		t.Fatal("empty artifact")
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatal("artifact is not a PNG")
	}
}

func TestRatingDistribution(t *testing.T) {
	a, err := RatingDistribution(sampleRecords(), testNames)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Name != "rating_distribution.png" || a.Kind != KindPhoto {
		t.Errorf("unexpected artifact meta: %+v", a)
	}
	assertPNG(t, a.PNG)
}

func TestAverageByModel(t *testing.T) {
	a, err := AverageByModel(sampleRecords(), testNames)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Kind != KindPhoto {
		t.Errorf("unexpected kind: %s", a.Kind)
	}
	assertPNG(t, a.PNG)
}

func TestChartsNoData(t *testing.T) {
	if _, err := RatingDistribution(nil, testNames); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
	if _, err := AverageByModel(nil, testNames); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestTopBottomTables(t *testing.T) {
	artifacts, err := TopBottomTables(sampleRecords(), testNames, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Three distinct models in the sample, two tables each.
	if len(artifacts) != 6 {
		t.Fatalf("expected 6 artifacts, got %d", len(artifacts))
	}
	for _, a := range artifacts {
		if a.Kind != KindDocument {
			t.Errorf("table artifact %s has kind %s", a.Name, a.Kind)
		}
		assertPNG(t, a.PNG)
	}
	if artifacts[0].Name != "top_answers_cohere.png" {
		t.Errorf("unexpected first artifact: %s", artifacts[0].Name)
	}
}

func TestTopBottomTablesEmpty(t *testing.T) {
	artifacts, err := TopBottomTables(nil, testNames, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(artifacts) != 0 {
		t.Errorf("expected no artifacts, got %d", len(artifacts))
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("aaaa bbbb cccc", 9)
	if len(lines) != 2 || lines[0] != "aaaa bbbb" || lines[1] != "cccc" {
		t.Errorf("unexpected wrap: %v", lines)
	}
	// Single oversized token is hard-split.
	lines = wrapText("aaaaaaaaaa", 4)
	if len(lines) != 3 {
		t.Errorf("unexpected hard split: %v", lines)
	}
	if got := wrapText("", 10); len(got) != 1 || got[0] != "" {
		t.Errorf("unexpected empty wrap: %v", got)
	}
}
