package flow

import (
	"errors"
	"strings"
)

// ErrNoJSONFound is returned when the generated text contains no brace-delimited span.
var ErrNoJSONFound = errors.New("No valid JSON found in response")

// ExtractJSON returns the span from the first '{' through the last '}' of raw, inclusive.
// The match is greedy: prose braces before or after the intended object are included.
func ExtractJSON(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", ErrNoJSONFound
	}
	end := strings.LastIndexByte(raw, '}')
	if end < start {
		return "", ErrNoJSONFound
	}
	return raw[start : end+1], nil
}

// balancedObjects scans raw for top-level brace-balanced objects, skipping braces inside JSON
// strings, and returns them in order of appearance. When an object is left unterminated the scan
// restarts just after its opening brace, so a stray '{' in prose does not hide a later object.
func balancedObjects(raw string) []string {
	var (
		out      []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				out = append(out, raw[start:i+1])
				start = -1
			}
		}
	}
	if start >= 0 {
		out = append(out, balancedObjects(raw[start+1:])...)
	}
	return out
}
