package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("debug", "json", &buf)
	if err != nil {
		t.Fatal(err)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level=%v", l.GetLevel())
	}
	l.WithField("message_id", 3).Info("created")
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json line, got %q", buf.String())
	}
	if line["msg"] != "created" || line["message_id"] != float64(3) {
		t.Fatalf("line=%v", line)
	}

	if _, err := New("loud", "text", &buf); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
