package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"switchlib/internal/logging"
)

// Record is one decoded JSON log line.
type Record struct {
	Time    string         `json:"ts"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

var reservedKeys = map[string]struct{}{"ts": {}, "level": {}, "msg": {}}

// ParseRecord decodes line. Lines that are not JSON objects are returned as
// a message-only record with ok false.
func ParseRecord(line string) (Record, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{Message: line}, false
	}
	record := Record{Fields: make(map[string]any, len(raw))}
	for key, value := range raw {
		switch key {
		case "ts":
			record.Time, _ = value.(string)
		case "level":
			record.Level, _ = value.(string)
		case "msg":
			record.Message, _ = value.(string)
		default:
			record.Fields[key] = value
		}
	}
	return record, true
}

// Field returns the string form of a field, or "" when absent.
func (r Record) Field(key string) string {
	value, ok := r.Fields[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// Format renders the record on one line: time, level, subject, message and
// the remaining fields sorted by key.
func (r Record) Format() string {
	var b strings.Builder
	if r.Time != "" {
		b.WriteString(r.Time)
		b.WriteByte(' ')
	}
	if r.Level != "" {
		fmt.Fprintf(&b, "%-5s ", strings.ToUpper(r.Level))
	}
	if title := r.Field(logging.FieldTitleID); title != "" {
		fmt.Fprintf(&b, "[%s] ", title)
	}
	b.WriteString(r.Message)

	keys := make([]string, 0, len(r.Fields))
	for key := range r.Fields {
		if _, skip := reservedKeys[key]; skip || key == logging.FieldTitleID {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%s", key, r.Field(key))
	}
	return b.String()
}

// Query selects records. Empty fields match everything.
type Query struct {
	RunID   string
	TitleID string
	// Level is the minimum level: debug, info, warn or error.
	Level string
}

// Match reports whether r satisfies q.
func (q Query) Match(r Record) bool {
	if q.RunID != "" && r.Field(logging.FieldRunID) != q.RunID {
		return false
	}
	if q.TitleID != "" && !strings.EqualFold(r.Field(logging.FieldTitleID), q.TitleID) {
		return false
	}
	if q.Level != "" && levelRank(r.Level) < levelRank(q.Level) {
		return false
	}
	return true
}

// Filter decodes lines and keeps the matching records. Lines that are not
// JSON are dropped when any filter is set.
func (q Query) Filter(lines []string) []Record {
	filtering := q != Query{}
	out := make([]Record, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, ok := ParseRecord(line)
		if !ok && filtering {
			continue
		}
		if ok && !q.Match(record) {
			continue
		}
		out = append(out, record)
	}
	return out
}

func levelRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return 0
	case "info", "":
		return 1
	case "warn", "warning":
		return 2
	case "error":
		return 3
	default:
		return 1
	}
}
