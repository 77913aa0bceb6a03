package transcribe

import (
	"context"
	"errors"
)

var (
	// ErrEmptyTranscript is returned when a document yields no readable text.
	ErrEmptyTranscript = errors.New("transcript is empty")
	// ErrUnsupportedFormat is returned for content types that cannot be converted to an image.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// Transcriber turns a receipt image or document into raw text
type Transcriber interface {
	// Transcribe reads every line of text in the document, top to bottom
	Transcribe(ctx context.Context, data []byte, contentType string) (string, error)
	// Close releases resources held by the transcriber
	Close() error
}

// transcriptionPrompt is shared by the LLM-backed transcribers
const transcriptionPrompt = `You are reading a photographed or scanned receipt. Transcribe every line of text exactly as it appears, from top to bottom.

Rules:
- Keep one receipt line per output line
- Keep prices, quantities, codes and punctuation exactly as printed
- Do not summarise, translate, reorder or correct anything
- Do not add commentary, headings or markdown
- If a line is unreadable, skip it`
