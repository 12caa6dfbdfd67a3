package obs

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_WritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	l.Info("row_ingested", map[string]interface{}{"file_id": "abc"})

	line := strings.TrimSpace(buf.String())
	var ev Event
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if ev.Event != "row_ingested" || ev.Level != LevelInfo {
		t.Fatalf("got %+v", ev)
	}
	if ev.Fields["file_id"] != "abc" {
		t.Fatalf("Fields[file_id] = %v, want abc", ev.Fields["file_id"])
	}
}

func TestLogger_DefaultsToStdoutWhenNilWriter(t *testing.T) {
	l := NewWithWriter(nil)
	if l.writer == nil {
		t.Fatal("expected a non-nil writer fallback")
	}
}
