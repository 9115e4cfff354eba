package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newWithOutput(&buf, "debug", "json")

	l.WithField("box", "abc").Debug("flagged")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "flagged" || entry["box"] != "abc" || entry["level"] != "debug" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestTextFormatAndLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	l := newWithOutput(&buf, "chatty", "text")

	if l.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level fallback, got %s", l.GetLevel())
	}
	l.Debug("hidden")
	l.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered: %q", out)
	}
	if !strings.Contains(out, "level=info") || !strings.Contains(out, "msg=shown") {
		t.Fatalf("unexpected output: %q", out)
	}
}
