package oracle

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSONArray is returned when a response holds no array decodable into
// the requested type.
var ErrNoJSONArray = errors.New("oracle: no well-formed JSON array in response")

// FirstJSONArray decodes the first well-formed JSON array in raw into v.
// Models often wrap answers in Markdown fences or chat around them; every
// '[' is tried in turn until one decodes.
func FirstJSONArray(raw string, v any) error {
	s := stripFences(raw)
	for offset := 0; offset < len(s); {
		i := strings.IndexByte(s[offset:], '[')
		if i < 0 {
			break
		}
		start := offset + i

		var candidate json.RawMessage
		dec := json.NewDecoder(strings.NewReader(s[start:]))
		if err := dec.Decode(&candidate); err == nil {
			if err := json.Unmarshal(candidate, v); err == nil {
				return nil
			}
		}
		offset = start + 1
	}
	return ErrNoJSONArray
}

// stripFences removes a leading ```json (or ```) line and a trailing fence.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
