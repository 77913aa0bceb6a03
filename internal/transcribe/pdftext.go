package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFText reads the embedded text layer of digital PDFs and hands everything
// else, including scanned PDFs without text, to the next transcriber.
type PDFText struct {
	next Transcriber
}

// NewPDFText wraps next with PDF text-layer extraction
func NewPDFText(next Transcriber) *PDFText {
	return &PDFText{next: next}
}

// Transcribe implements Transcriber
func (p *PDFText) Transcribe(ctx context.Context, data []byte, contentType string) (string, error) {
	if normalizeContentType(contentType) != mimePDF {
		return p.next.Transcribe(ctx, data, contentType)
	}

	text, err := pdfTextLayer(data)
	if err == nil {
		return text, nil
	}
	if !errors.Is(err, ErrEmptyTranscript) {
		slog.Warn("Failed to read PDF text layer, falling back to OCR", "error", err)
	}
	return p.next.Transcribe(ctx, data, contentType)
}

// Close closes the wrapped transcriber
func (p *PDFText) Close() error {
	return p.next.Close()
}

// pdfTextLayer joins the words of every row on every page, one row per line
func pdfTextLayer(data []byte) (text string, err error) {
	// the parser panics on some malformed documents
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}

	var lines []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("reading page %d: %w", i, err)
		}
		for _, row := range rows {
			var words []string
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			if line := strings.TrimSpace(strings.Join(words, " ")); line != "" {
				lines = append(lines, line)
			}
		}
	}

	return cleanTranscript(strings.Join(lines, "\n"))
}
