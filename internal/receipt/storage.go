package receipt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Storage keeps the original documents extractions were made from
type Storage interface {
	// Save stores a document and returns the name to fetch it by
	Save(name string, data []byte) (string, error)

	// Get retrieves a stored document
	Get(name string) ([]byte, error)

	// Delete removes a stored document
	Delete(name string) error
}

// LocalStorage implements Storage on the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the storage directory if needed
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// path confines name to the storage directory
func (l *LocalStorage) path(name string) (string, error) {
	base := filepath.Base(filepath.Clean(name))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid document name %q", name)
	}
	return filepath.Join(l.basePath, base), nil
}

// Save writes a document to local storage
func (l *LocalStorage) Save(name string, data []byte) (string, error) {
	path, err := l.path(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing document: %w", err)
	}
	return filepath.Base(path), nil
}

// Get reads a document from local storage
func (l *LocalStorage) Get(name string) ([]byte, error) {
	path, err := l.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: document %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return data, nil
}

// Delete removes a document from local storage
func (l *LocalStorage) Delete(name string) error {
	path, err := l.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename shortens phone-generated upload names to something safe to store
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "." || unsafeFilenameChars.MatchString(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(repeatedSpaces.ReplaceAllString(base, " "))
	if len(base) > 50 {
		base = strings.TrimSpace(base[:50])
	}
	if base == "" {
		base = "receipt"
	}

	return base + ext
}
