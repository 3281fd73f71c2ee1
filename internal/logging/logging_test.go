package logging

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", ""); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewWritesLevelFiles(t *testing.T) {
	dir := t.TempDir()
	log, err := New("warn", dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Info("dropped")
	log.Warn("kept")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(dir, "candidates-warn.log")); err != nil {
		t.Fatalf("expected warn log file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "candidates-info.log")); !os.IsNotExist(err) {
		t.Fatalf("expected no info log file below the configured level")
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	for _, tc := range []struct {
		status  int
		message string
		level   zapcore.Level
	}{
		{http.StatusOK, "Request processed", zapcore.DebugLevel},
		{http.StatusNotFound, "Client error", zapcore.WarnLevel},
		{http.StatusInternalServerError, "Server error", zapcore.ErrorLevel},
	} {
		handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/candidates", nil))

		entries := logs.TakeAll()
		if len(entries) != 1 {
			t.Fatalf("status %d: expected one entry, got %d", tc.status, len(entries))
		}
		if entries[0].Message != tc.message || entries[0].Level != tc.level {
			t.Fatalf("status %d: got %q at %s", tc.status, entries[0].Message, entries[0].Level)
		}
		if entries[0].ContextMap()["path"] != "/api/candidates" {
			t.Fatalf("expected path field, got %v", entries[0].ContextMap())
		}
	}
}
