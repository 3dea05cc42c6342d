package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		env, level string
		debug      bool
	}{
		{"local", "", true},
		{"prod", "", false},
		{"prod", "debug", true},
		{"local", "warn", false},
	}
	for _, tc := range cases {
		l, err := New("settlement-service", tc.env, tc.level)
		if err != nil {
			t.Fatalf("New(%s, %s): %v", tc.env, tc.level, err)
		}
		if got := l.Core().Enabled(zap.DebugLevel); got != tc.debug {
			t.Errorf("env=%s level=%q debug enabled = %v, want %v", tc.env, tc.level, got, tc.debug)
		}
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New("x", "prod", "loud"); err == nil {
		t.Fatal("expected error")
	}
}
