package receipt

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zombor/snap2invoice/internal/extraction"
	"github.com/zombor/snap2invoice/internal/transcribe"
)

var (
	// ErrNoText is returned when there is no receipt text to extract from
	ErrNoText = errors.New("no text provided")
	// ErrNoTranscriber is returned when a document arrives and no transcriber is configured
	ErrNoTranscriber = errors.New("no transcriber configured")
)

// IDGenerator generates unique IDs for extractions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now().UTC()
}

// Service runs receipt text through the extraction engine and keeps the results
type Service struct {
	db          DB
	transcriber transcribe.Transcriber
	storage     Storage
	engine      *extraction.Engine
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with UUID identifiers and the wall clock.
// transcriber may be nil when only text is submitted.
func NewService(db DB, transcriber transcribe.Transcriber, storage Storage, engine *extraction.Engine) *Service {
	return NewServiceWithDeps(db, transcriber, storage, engine, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, transcriber transcribe.Transcriber, storage Storage, engine *extraction.Engine, idGen IDGenerator, timeSrc TimeSource) *Service {
	if engine == nil {
		engine = extraction.New()
	}
	return &Service{
		db:          db,
		transcriber: transcriber,
		storage:     storage,
		engine:      engine,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// hashText fingerprints OCR text so repeated submissions are served from the index
func hashText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}

// cached returns the stored extraction for hash, or nil when there is none
func (s *Service) cached(hash string) (*Extraction, error) {
	e, err := s.db.FindByTextHash(hash)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up text hash: %w", err)
	}
	slog.Info("Serving cached extraction", "id", e.ID, "source", e.Source)
	return e, nil
}

func (s *Service) newExtraction(id, source, text, hash string) *Extraction {
	r := s.engine.Extract(text)
	return &Extraction{
		ID:           id,
		Source:       source,
		Text:         text,
		TextHash:     hash,
		Receipt:      r,
		InvoiceItems: extraction.InvoiceItems(r),
		Confidence:   r.OverallConfidence(),
		Plausible:    r.Plausible(),
		NeedsReview:  needsReview(r),
		CreatedAt:    s.timeSource.Now(),
	}
}

// ProcessText extracts a receipt from OCR text and saves the result
func (s *Service) ProcessText(ctx context.Context, source, text string) (*Extraction, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := hashText(text)
	if e, err := s.cached(hash); err != nil || e != nil {
		return e, err
	}

	e := s.newExtraction(s.idGenerator.Generate(), source, text, hash)
	if err := s.db.SaveExtraction(e); err != nil {
		return nil, fmt.Errorf("saving extraction to database: %w", err)
	}

	slog.Info("Extracted receipt",
		"id", e.ID,
		"merchant", e.Receipt.MerchantName,
		"total", e.Receipt.Total,
		"confidence", e.Confidence,
		"needs_review", e.NeedsReview,
	)
	return e, nil
}

// transcribeDocument reads the text of an uploaded document. Plain text
// uploads are used as-is.
func (s *Service) transcribeDocument(ctx context.Context, data []byte, contentType string) (string, error) {
	if strings.HasPrefix(strings.ToLower(contentType), "text/plain") {
		return string(data), nil
	}
	if s.transcriber == nil {
		return "", ErrNoTranscriber
	}
	return s.transcriber.Transcribe(ctx, data, contentType)
}

// ProcessFile transcribes an uploaded receipt, stores the document and saves the extraction
func (s *Service) ProcessFile(ctx context.Context, filename string, data []byte, contentType string) (*Extraction, error) {
	if len(data) == 0 {
		return nil, ErrNoText
	}

	text, err := s.transcribeDocument(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to transcribe receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, fmt.Errorf("transcribing receipt: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	hash := hashText(text)
	if e, err := s.cached(hash); err != nil || e != nil {
		return e, err
	}

	id := s.idGenerator.Generate()
	savedName, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	e := s.newExtraction(id, filename, text, hash)
	e.Filename = savedName
	e.ContentType = contentType

	if err := s.db.SaveExtraction(e); err != nil {
		s.storage.Delete(savedName)
		return nil, fmt.Errorf("saving extraction to database: %w", err)
	}

	slog.Info("Extracted receipt",
		"id", e.ID,
		"filename", filename,
		"merchant", e.Receipt.MerchantName,
		"total", e.Receipt.Total,
		"confidence", e.Confidence,
		"needs_review", e.NeedsReview,
	)
	return e, nil
}

// GetExtraction retrieves an extraction by ID
func (s *Service) GetExtraction(id string) (*Extraction, error) {
	e, err := s.db.GetExtraction(id)
	if err != nil {
		return nil, fmt.Errorf("getting extraction: %w", err)
	}
	return e, nil
}

// ListExtractions returns all extractions, newest first
func (s *Service) ListExtractions() ([]*Extraction, error) {
	extractions, err := s.db.ListExtractions()
	if err != nil {
		return nil, fmt.Errorf("listing extractions: %w", err)
	}
	slices.SortStableFunc(extractions, func(a, b *Extraction) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return extractions, nil
}

// InvoiceItems returns the invoice lines projected from an extraction
func (s *Service) InvoiceItems(id string) ([]extraction.InvoiceLineItem, error) {
	e, err := s.GetExtraction(id)
	if err != nil {
		return nil, err
	}
	if e.InvoiceItems == nil {
		return []extraction.InvoiceLineItem{}, nil
	}
	return e.InvoiceItems, nil
}

// GetDocument retrieves the uploaded document an extraction was made from
func (s *Service) GetDocument(id string) ([]byte, string, error) {
	e, err := s.GetExtraction(id)
	if err != nil {
		return nil, "", err
	}
	if e.Filename == "" {
		return nil, "", fmt.Errorf("%w: extraction %s has no document", ErrNotFound, id)
	}

	data, err := s.storage.Get(e.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting document: %w", err)
	}
	return data, e.ContentType, nil
}

// DeleteExtraction removes an extraction and its document
func (s *Service) DeleteExtraction(id string) error {
	e, err := s.db.GetExtraction(id)
	if err != nil {
		return fmt.Errorf("getting extraction for deletion: %w", err)
	}

	if e.Filename != "" {
		if err := s.storage.Delete(e.Filename); err != nil {
			slog.Warn("Failed to delete document", "filename", e.Filename, "error", err)
		}
	}

	if err := s.db.DeleteExtraction(id); err != nil {
		return fmt.Errorf("deleting extraction from database: %w", err)
	}
	return nil
}
