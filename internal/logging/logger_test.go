package logging

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize_SilentWithoutLevel(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize(\"\") error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be a no-op when no level is configured")
	}
}

func TestInitialize_FromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize error = %v", err)
	}
	core := GetLogger().Core()
	if core.Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !core.Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled at warn level")
	}
}

func TestInitialize_RejectsUnknownLevel(t *testing.T) {
	if err := Initialize("chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLogNotification(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := ReplaceLogger(zap.New(core))
	defer restore()

	LogNotification("streaming_proxy", "reload", nil)
	LogNotification("connection", "disconnect", errors.New("daemon not running"))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel {
		t.Errorf("successful notification level = %v, want debug", entries[0].Level)
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("failed notification level = %v, want warn", entries[1].Level)
	}
	if got := entries[1].ContextMap()["collaborator"]; got != "connection" {
		t.Errorf("collaborator field = %v, want connection", got)
	}
}

func TestLogCommit(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := ReplaceLogger(zap.New(core))
	defer restore()

	LogCommit(11, nil)
	LogCommit(11, errors.New("disk full"))

	if n := logs.FilterMessage("Preferences committed").Len(); n != 1 {
		t.Errorf("success entries = %d, want 1", n)
	}
	if n := logs.FilterMessage("Preference commit failed").Len(); n != 1 {
		t.Errorf("failure entries = %d, want 1", n)
	}
}
