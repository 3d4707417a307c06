package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON parses a structured record from raw model output. A single
// surrounding markdown fence is tolerated: a leading ``` or ```json marker and a
// trailing ``` marker. Truncated or syntactically invalid JSON is a hard failure.
func ExtractJSON(raw string) (map[string]interface{}, error) {
	text := stripFences(raw)

	var record map[string]interface{}
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return record, nil
}

// ValidateRequiredFields reports whether every required key is present and non-nil.
func ValidateRequiredFields(record map[string]interface{}, required []string) bool {
	for _, field := range required {
		value, ok := record[field]
		if !ok || value == nil {
			return false
		}
	}

	return true
}

// Decode re-marshals an extracted record into a typed payload. The record has
// already passed JSON parsing, so a decode failure means the shape does not match.
func Decode(record map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return nil
}

func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	body := text[3:]
	newline := strings.IndexByte(body, '\n')
	if newline < 0 {
		return text
	}

	tag := strings.TrimSpace(body[:newline])
	if tag != "" && !strings.EqualFold(tag, "json") {
		return text
	}

	body = strings.TrimSpace(body[newline+1:])
	body = strings.TrimSuffix(body, "```")

	return strings.TrimSpace(body)
}
