package db

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"ronda-app-go/pkg/logger"
)

func TestOrDefault(t *testing.T) {
	if got := orDefault(0, 10); got != 10 {
		t.Fatalf("expected fallback, got %d", got)
	}
	if got := orDefault(3*time.Second, time.Minute); got != 3*time.Second {
		t.Fatalf("expected value kept, got %v", got)
	}
}

func TestGormWriterFlattensLines(t *testing.T) {
	var buf bytes.Buffer
	w := gormWriter{log: logger.New(logger.Options{Output: &buf, Level: slog.LevelDebug})}

	w.Printf("%s\n[%.3fms] [rows:%v] %s", "rondas.go:42", 812.5, 3, "SELECT * FROM rondas")

	out := buf.String()
	if !strings.Contains(out, `"detail":"rondas.go:42 [812.500ms] [rows:3] SELECT * FROM rondas"`) {
		t.Fatalf("unexpected log line %s", out)
	}
}
