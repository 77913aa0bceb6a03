package transcribe

import (
	"fmt"
	"strings"
)

// cleanTranscript strips the markdown fences and chatter that models wrap
// around plain text, and fails when nothing is left.
func cleanTranscript(text string) (string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		// drop the fence line including any language tag
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		} else {
			text = strings.TrimLeft(text, "`")
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)

	if text == "" {
		return "", fmt.Errorf("cleaning transcript: %w", ErrEmptyTranscript)
	}
	return text, nil
}
