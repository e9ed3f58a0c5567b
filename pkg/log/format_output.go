package log

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// JSONFormatter renders an Entry as a single JSON object.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	m := make(map[string]interface{}, len(entry.Fields)+4)
	for k, v := range entry.Fields {
		m[k] = v
	}
	m["level"] = entry.Level.String()
	m["msg"] = entry.Message
	m["time"] = entry.Timestamp.Format(time.RFC3339Nano)
	if entry.Caller != "" {
		m["caller"] = entry.Caller
	}
	if entry.Error != nil {
		m["error"] = entry.Error.Error()
	}
	return json.Marshal(m)
}

// TextFormatter renders an Entry as a single human-readable line.
type TextFormatter struct{}

func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var b strings.Builder
	b.WriteString(entry.Timestamp.Format(time.RFC3339Nano))
	b.WriteByte(' ')
	b.WriteString(entry.Level.String())
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	for k, v := range entry.Fields {
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	if entry.Error != nil {
		fmt.Fprintf(&b, " error=%v", entry.Error)
	}
	return []byte(b.String()), nil
}

// ConsoleOutput writes formatted entries to stdout, or stderr at Error level
// and above.
type ConsoleOutput struct{}

func NewConsoleOutput() *ConsoleOutput { return &ConsoleOutput{} }

func (o *ConsoleOutput) Write(entry *Entry, formatted []byte) error {
	w := os.Stdout
	if entry.Level >= ErrorLevel {
		w = os.Stderr
	}
	_, err := w.Write(append(formatted, '\n'))
	return err
}

func (o *ConsoleOutput) Close() error { return nil }
