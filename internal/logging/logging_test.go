package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "warn"} {
		l, err := New(level, false)
		if err != nil {
			t.Fatalf("level %q: %v", level, err)
		}
		_ = l.Sync()
	}
	if _, err := New("loud", true); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestDebugEnabled(t *testing.T) {
	l, err := New("debug", true)
	if err != nil {
		t.Fatal(err)
	}
	if ce := l.Check(zapcore.DebugLevel, "probe"); ce == nil {
		t.Error("expected debug to be enabled")
	}
}
