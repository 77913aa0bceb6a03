package transcribe

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

const (
	mimePNG = "image/png"
	mimePDF = "application/pdf"
)

// normalizeContentType lowercases the MIME type and drops parameters such as charset
func normalizeContentType(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "image/jpeg"
	}
	return mimeType
}

// renderPDFPage rasterises the first page of a PDF (most receipts are single page)
func renderPDFPage(pdfData []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// decodeImage decodes JPEG, PNG, GIF and HEIC/HEIF data
func decodeImage(data []byte, mimeType string) (image.Image, error) {
	if isHEIC(data, mimeType) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("decoding %s: %w", mimeType, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// isHEIC checks the ftyp box brand and the MIME type for HEIC/HEIF
func isHEIC(data []byte, mimeType string) bool {
	if strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif") {
		return true
	}
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// toPNG converts PDFs and non-PNG images into a PNG the transcribers can read.
// PNG input is returned untouched.
func toPNG(data []byte, contentType string) ([]byte, error) {
	mimeType := normalizeContentType(contentType)

	var (
		img image.Image
		err error
	)
	switch {
	case mimeType == mimePDF:
		img, err = renderPDFPage(data)
	case mimeType == mimePNG && !isHEIC(data, mimeType):
		return data, nil
	case strings.HasPrefix(mimeType, "image/"):
		img, err = decodeImage(data, mimeType)
	default:
		return nil, fmt.Errorf("converting %s: %w", mimeType, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
