package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// noteWrapper is the accepted JSON envelope for uploaded notes
type noteWrapper struct {
	Note    string `json:"note"`
	Text    string `json:"text"`
	Content string `json:"content"`
}

// UnwrapNote extracts note text from file content. Files named *.json
// are parsed and the note taken from a note/text/content field;
// malformed JSON or a missing field falls back to the raw content.
func UnwrapNote(name string, content []byte) string {
	if !strings.HasSuffix(strings.ToLower(name), ".json") {
		return string(content)
	}

	var wrapper noteWrapper
	if err := json.Unmarshal(content, &wrapper); err != nil {
		return string(content)
	}
	switch {
	case wrapper.Note != "":
		return wrapper.Note
	case wrapper.Text != "":
		return wrapper.Text
	case wrapper.Content != "":
		return wrapper.Content
	}
	return string(content)
}

// ResolveInput acquires note text from pasted text or a file path.
// Pasted text wins when both are present; "-" reads stdin.
func ResolveInput(text, filePath string) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}
	if filePath == "" {
		return "", ErrInputUnavailable
	}

	if filePath == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(content), nil
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	return UnwrapNote(filePath, content), nil
}
