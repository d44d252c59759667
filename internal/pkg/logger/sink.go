package logger

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// JSONSink writes one JSON object per entry, bunyan style.
type JSONSink struct {
	mu       sync.Mutex
	w        io.Writer
	hostname string
	pid      int
}

// NewJSONSink returns a sink that writes newline-delimited JSON to w.
func NewJSONSink(w io.Writer) *JSONSink {
	host, _ := os.Hostname()
	return &JSONSink{w: w, hostname: host, pid: os.Getpid()}
}

func (s *JSONSink) Write(e Entry) error {
	out := map[string]interface{}{
		"time":     e.Time.Format(time.RFC3339Nano),
		"level":    e.Level.String(),
		"msg":      e.Msg,
		"hostname": s.hostname,
		"pid":      s.pid,
	}
	if e.Name != "" {
		out["name"] = e.Name
	}
	for _, f := range e.Fields {
		out[f.Key] = f.Value
	}

	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(data)
	return err
}

// MemorySink keeps entries in memory. Tests use it to assert on log output.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

func (s *MemorySink) Write(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

// Entries returns a copy of everything written so far.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Field returns the value of key in e, or "" when absent.
func (e Entry) Field(key string) string {
	for i := len(e.Fields) - 1; i >= 0; i-- {
		if e.Fields[i].Key == key {
			return e.Fields[i].Value
		}
	}
	return ""
}
