package logger

import (
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level string
	}{
		{"debug"},
		{"info"},
		{"warn"},
		{"error"},
		{"invalid"}, // Defaults to info
		{""},        // Defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := New(tt.level, "bot")
			if log == nil {
				t.Fatal("expected non-nil logger")
			}
		})
	}
}
