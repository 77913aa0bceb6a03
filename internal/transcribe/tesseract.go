package transcribe

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements Transcriber with a local Tesseract OCR install
type Tesseract struct {
	languages []string
}

// NewTesseract creates a Tesseract transcriber for the given languages, "eng" by default
func NewTesseract(languages ...string) *Tesseract {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Tesseract{languages: languages}
}

// Transcribe runs OCR over the document. A gosseract client is not safe for
// concurrent use, so each call gets its own.
func (t *Tesseract) Transcribe(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pngData, err := toPNG(data, contentType)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("setting OCR language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", fmt.Errorf("setting page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(pngData); err != nil {
		return "", fmt.Errorf("setting OCR image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("running OCR: %w", err)
	}

	return cleanTranscript(text)
}

// Close is a no-op, clients are released per call
func (t *Tesseract) Close() error {
	return nil
}
