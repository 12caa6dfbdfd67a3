// Package audit records structured, append-only events describing what an
// ingest run did: which file was touched, which operator ran it, and what
// happened. It is distinct from pkg/custody, which produces cryptographically
// signed chain-of-custody records for evidentiary integrity; audit events are
// informational and unsigned, meant for operational review and SIEM ingestion.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType categorizes an audit event.
type EventType string

const (
	EventIngest  EventType = "INGEST"
	EventCustody EventType = "CUSTODY"
	EventDetect  EventType = "DETECT"
	EventSystem  EventType = "SYSTEM"
)

// Event is a single structured audit record.
type Event struct {
	ID        string                 `json:"id"`
	FileID    string                 `json:"file_id,omitempty"`
	Operator  string                 `json:"operator"`
	Type      EventType              `json:"type"`
	Action    string                 `json:"action"`
	Resource  string                 `json:"resource"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Logger records audit events.
type Logger interface {
	Record(ctx context.Context, operator string, eventType EventType, action, resource string, metadata map[string]interface{}) error
}

type logger struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewLogger creates a Logger writing to os.Stdout.
func NewLogger() Logger {
	return NewLoggerWithWriter(os.Stdout)
}

// NewLoggerWithWriter creates a Logger writing to w, allowing injection of a
// bytes.Buffer or file sink for tests and alternate destinations.
func NewLoggerWithWriter(w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	return &logger{writer: w}
}

func (l *logger) Record(ctx context.Context, operator string, eventType EventType, action, resource string, metadata map[string]interface{}) error {
	event := Event{
		ID:        uuid.New().String(),
		Operator:  operator,
		Type:      eventType,
		Action:    action,
		Resource:  resource,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
	if fileID, ok := metadata["file_id"].(string); ok {
		event.FileID = fileID
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = l.writer.Write(append([]byte("AUDIT: "), append(data, '\n')...))
	return err
}
