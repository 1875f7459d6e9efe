// Package extract pulls a JSON document out of raw model text. Models wrap
// JSON in prose, markdown fences, and trailing commentary, so extraction
// tries progressively looser passes over the text and settles on an empty
// object when nothing parses. The same input always yields the same result.
package extract

import (
	"encoding/json"
	"strings"
)

const fenceTag = "```json"

// JSON extracts a decoded JSON value from raw model text. Passes run in
// priority order: the interior of a fenced json block, the span from the
// first opening brace or bracket to the last closer of the same kind, the
// whole text with fence markers stripped, then the span from the first
// brace to the last brace. When no pass parses, the result is an empty
// object. JSON never fails and never returns nil.
func JSON(text string) interface{} {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return map[string]interface{}{}
	}
	if v, ok := fencedBlock(trimmed); ok {
		return v
	}
	if v, ok := boundedSpan(trimmed); ok {
		return v
	}
	if v, ok := parse(stripFences(trimmed)); ok {
		return v
	}
	if v, ok := braceSpan(trimmed); ok {
		return v
	}
	return map[string]interface{}{}
}

// Empty reports whether a candidate carries no content: nil, an empty
// object, or an empty list.
func Empty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case map[string]interface{}:
		return len(t) == 0
	case []interface{}:
		return len(t) == 0
	}
	return false
}

func fencedBlock(text string) (interface{}, bool) {
	start := strings.Index(text, fenceTag)
	if start < 0 {
		return nil, false
	}
	interior := text[start+len(fenceTag):]
	// A truncated response may never close the fence. Take the remainder.
	if end := strings.Index(interior, "```"); end >= 0 {
		interior = interior[:end]
	}
	return parse(strings.TrimSpace(interior))
}

// boundedSpan cuts from the first opener to the last closer of the same
// kind. Bounds come from raw character positions, not brace matching, so a
// closer inside trailing prose widens the span past valid JSON. A failed
// parse falls through to the looser passes.
func boundedSpan(text string) (interface{}, bool) {
	open := strings.IndexAny(text, "{[")
	if open < 0 {
		return nil, false
	}
	closer := "}"
	if text[open] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end <= open {
		return nil, false
	}
	return parse(text[open : end+1])
}

func stripFences(text string) string {
	replacer := strings.NewReplacer(fenceTag, "", "```", "")
	return strings.TrimSpace(replacer.Replace(text))
}

func braceSpan(text string) (interface{}, bool) {
	open := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if open < 0 || end <= open {
		return nil, false
	}
	return parse(text[open : end+1])
}

func parse(text string) (interface{}, bool) {
	var v interface{}
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}
	// JSON null decodes to nil. Callers get an empty object instead.
	if v == nil {
		return nil, false
	}
	return v, true
}
