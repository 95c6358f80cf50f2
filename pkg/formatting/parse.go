package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrParseFailed is returned when content cannot be parsed as JSON,
	// either directly or from a markdown code fence.
	ErrParseFailed = errors.New("failed to parse response")

	// ErrNoJSON is returned when a model response contains no JSON object.
	ErrNoJSON = errors.New("no json object in response")
)

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Parse attempts to unmarshal content as JSON into T.
// If direct parsing fails, it locates JSON with ExtractJSON and retries.
// Returns ErrParseFailed if both attempts fail.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	if cleaned, err := ExtractJSON(content); err == nil {
		if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
			return result, nil
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, truncate(content, 200))
}

// ExtractJSON locates the JSON payload in a model response. The first fenced
// code block whose body opens with '{' wins; fences holding prose are
// skipped. Otherwise the span from the first '{' to the last '}' is used.
func ExtractJSON(content string) (string, error) {
	for _, m := range jsonBlockRegex.FindAllStringSubmatch(content, -1) {
		if cleaned := strings.TrimSpace(m[1]); strings.HasPrefix(cleaned, "{") {
			return cleaned, nil
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}

	return content[start : end+1], nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
