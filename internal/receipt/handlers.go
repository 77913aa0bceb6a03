package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/snap2invoice/internal/transcribe"
)

const (
	// high-resolution phone photos can be large
	maxUploadSize = int64(50 << 20)
	maxTextSize   = int64(1 << 20)
)

type createExtractionRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service errors onto status codes
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoText):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Extraction not found")
	case errors.Is(err, transcribe.ErrEmptyTranscript),
		errors.Is(err, transcribe.ErrUnsupportedFormat),
		errors.Is(err, ErrNoTranscriber):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// handleHealth reports liveness, it is never behind auth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListExtractions returns all extractions, newest first
func (s *Server) handleListExtractions(w http.ResponseWriter, r *http.Request) {
	extractions, err := s.service.ListExtractions()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if extractions == nil {
		extractions = []*Extraction{}
	}
	writeJSON(w, http.StatusOK, extractions)
}

// handleCreateExtraction accepts OCR text as JSON or a receipt document as a multipart upload
func (s *Server) handleCreateExtraction(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		s.handleUpload(w, r)
		return
	}

	var req createExtractionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTextSize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Source == "" {
		req.Source = "text"
	}

	e, err := s.service.ProcessText(r.Context(), req.Source, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File is too large. Maximum size is 50MB.")
			return
		}
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFromExt(header.Filename)
	}

	e, err := s.service.ProcessFile(r.Context(), header.Filename, data, strings.ToLower(contentType))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// contentTypeFromExt guesses the type of uploads that arrive without one
func contentTypeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// handleGetExtraction returns a single extraction
func (s *Server) handleGetExtraction(w http.ResponseWriter, r *http.Request) {
	e, err := s.service.GetExtraction(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleInvoiceItems returns the invoice lines of an extraction
func (s *Server) handleInvoiceItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.InvoiceItems(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleGetDocument returns the uploaded document of an extraction
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetDocument(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteExtraction deletes an extraction
func (s *Server) handleDeleteExtraction(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteExtraction(r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
