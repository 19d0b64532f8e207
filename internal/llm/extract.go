package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSONObject strips markdown code fences (if any), finds the first
// balanced {...} span via a brace-matching scan, and unmarshals it into
// out. It tolerates trailing commentary around the JSON object.
func ExtractJSONObject(text string, out interface{}) error {
	candidate := text
	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	}

	span, ok := firstBalancedObject(candidate)
	if !ok {
		return fmt.Errorf("llm: no balanced JSON object found in response")
	}
	return json.Unmarshal([]byte(span), out)
}

// firstBalancedObject returns the first top-level {...} substring using a
// simple brace-depth scan that ignores braces inside quoted strings.
func firstBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
