package logger

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel maps a case-insensitive level name to a Level. Unknown names
// fall back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Field is a single key/value pair attached to an entry.
type Field struct {
	Key   string
	Value string
}

// Entry is one structured log event as handed to sinks.
type Entry struct {
	Time   time.Time
	Level  Level
	Name   string
	Msg    string
	Fields []Field
}

// Sink receives entries. Sinks are invoked in the order they were given to
// New; a sink error is reported to stderr and does not stop later sinks.
type Sink interface {
	Write(e Entry) error
}

// Logger provides structured key/value logging with optional PII redaction.
// A Logger is immutable; With returns a derived copy, so it is safe to share
// across goroutines.
type Logger struct {
	name      string
	level     Level
	redactPII bool
	fields    []Field
	sinks     []Sink
}

// Options configures a Logger.
type Options struct {
	Name      string
	Level     Level
	RedactPII bool
}

// New builds a Logger that fans every entry out to sinks, in order.
func New(opts Options, sinks ...Sink) *Logger {
	return &Logger{
		name:      opts.Name,
		level:     opts.Level,
		redactPII: opts.RedactPII,
		sinks:     sinks,
	}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger { return &Logger{level: ERROR + 1} }

// With returns a Logger that adds the given key/value pairs to every entry.
func (l *Logger) With(fields ...interface{}) *Logger {
	if l == nil {
		return nil
	}
	next := *l
	next.fields = append(append([]Field(nil), l.fields...), l.toFields(fields)...)
	return &next
}

// Debug emits a DEBUG-level structured log entry.
func (l *Logger) Debug(msg string, fields ...interface{}) { l.log(DEBUG, msg, fields...) }

// Info emits an INFO-level structured log entry.
func (l *Logger) Info(msg string, fields ...interface{}) { l.log(INFO, msg, fields...) }

// Warn emits a WARN-level structured log entry.
func (l *Logger) Warn(msg string, fields ...interface{}) { l.log(WARN, msg, fields...) }

// Error emits an ERROR-level structured log entry.
func (l *Logger) Error(msg string, fields ...interface{}) { l.log(ERROR, msg, fields...) }

func (l *Logger) log(level Level, msg string, fields ...interface{}) {
	if l == nil || level < l.level || len(l.sinks) == 0 {
		return
	}

	entry := Entry{
		Time:   time.Now().UTC(),
		Level:  level,
		Name:   l.name,
		Msg:    msg,
		Fields: append(append([]Field(nil), l.fields...), l.toFields(fields)...),
	}

	for _, s := range l.sinks {
		if err := s.Write(entry); err != nil {
			fmt.Fprintf(os.Stderr, "logger: sink write failed: %v\n", err)
		}
	}
}

// toFields parses alternating key/value pairs. A trailing key with no value
// is dropped.
func (l *Logger) toFields(kv []interface{}) []Field {
	out := make([]Field, 0, len(kv)/2)
	for i := 0; i < len(kv)-1; i += 2 {
		key := fmt.Sprintf("%v", kv[i])
		val := fmt.Sprintf("%v", kv[i+1])
		if l.redactPII {
			val = redactPIIValue(key, val)
		}
		out = append(out, Field{Key: key, Value: val})
	}
	return out
}

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

func redactPIIValue(key, val string) string {
	key = strings.ToLower(key)
	if strings.Contains(key, "email") || strings.Contains(key, "recipient") {
		return RedactEmail(val)
	}
	// Redact any embedded emails in generic fields
	return emailRegex.ReplaceAllStringFunc(val, RedactEmail)
}

var (
	setupOnce     sync.Once
	defaultLogger = New(Options{Name: "newsletter", Level: INFO, RedactPII: true}, NewJSONSink(os.Stderr))
)

// Setup installs the process-wide logger. Only the first call has any
// effect; it is meant to be called once from main.
func Setup(opts Options, w io.Writer) *Logger {
	setupOnce.Do(func() {
		if w == nil {
			w = os.Stdout
		}
		defaultLogger = New(opts, NewJSONSink(w))
	})
	return defaultLogger
}

// Default returns the process-wide logger.
func Default() *Logger { return defaultLogger }
