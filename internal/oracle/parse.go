package oracle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedJSONPatterns = []*regexp.Regexp{
	regexp.MustCompile("(?s)```json\\s*(\\{.*?\\}|\\[.*?\\])\\s*```"),
	regexp.MustCompile("(?s)```\\s*(\\{.*?\\}|\\[.*?\\])\\s*```"),
}

// ExtractJSON pulls a JSON value out of a model response. Models wrap
// JSON in markdown fences or prose, so this tries, in order: direct
// parsing, fenced code blocks, and a balanced-bracket scan.
func ExtractJSON(payload string) (any, error) {
	text := strings.TrimSpace(payload)
	if text == "" {
		return nil, fmt.Errorf("empty payload")
	}

	var value any
	if err := json.Unmarshal([]byte(text), &value); err == nil {
		return value, nil
	}

	for _, pattern := range fencedJSONPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			if err := json.Unmarshal([]byte(strings.TrimSpace(match[1])), &value); err == nil {
				return value, nil
			}
		}
	}

	if candidate, ok := balancedSlice(text); ok {
		if err := json.Unmarshal([]byte(candidate), &value); err == nil {
			return value, nil
		}
	}

	preview := text
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	return nil, fmt.Errorf("no parseable JSON in response: %s", preview)
}

// balancedSlice returns the substring from the first { or [ to its
// matching close bracket.
func balancedSlice(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}

	open := text[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
