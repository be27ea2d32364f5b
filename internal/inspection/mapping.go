package inspection

import (
	"encoding/json"
	"strings"
)

// NotesKey is the free-text entry a mapping may carry alongside item values.
const NotesKey = "notes"

// DecodeMap parses a serialized inspection mapping. Malformed or empty
// payloads decode to an empty map; historical data irregularities must never
// break display or analytics.
func DecodeMap(serialized string) map[string]any {
	if strings.TrimSpace(serialized) == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(serialized), &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

// EncodeMap serializes an inspection mapping for storage.
func EncodeMap(m map[string]any) string {
	if m == nil {
		m = map[string]any{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Notes extracts the trimmed free-text notes entry from a decoded mapping,
// or "" when absent or not text.
func Notes(m map[string]any) string {
	v, ok := m[NotesKey]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
