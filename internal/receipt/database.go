package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	extractionsBucket = "extractions"
	textHashBucket    = "text_hashes"
)

// ErrNotFound is returned when an extraction does not exist
var ErrNotFound = errors.New("extraction not found")

// DB defines the interface for database operations
type DB interface {
	// SaveExtraction saves an extraction and indexes its text hash
	SaveExtraction(e *Extraction) error

	// GetExtraction retrieves an extraction by ID
	GetExtraction(id string) (*Extraction, error)

	// FindByTextHash retrieves the extraction made from identical text
	FindByTextHash(hash string) (*Extraction, error)

	// ListExtractions returns all extractions
	ListExtractions() ([]*Extraction, error)

	// DeleteExtraction removes an extraction and its index entry
	DeleteExtraction(id string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{extractionsBucket, textHashBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveExtraction saves an extraction to the database
func (b *BoltDB) SaveExtraction(e *Extraction) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling extraction: %w", err)
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(extractionsBucket)).Put([]byte(e.ID), data); err != nil {
			return err
		}
		if e.TextHash == "" {
			return nil
		}
		return tx.Bucket([]byte(textHashBucket)).Put([]byte(e.TextHash), []byte(e.ID))
	})
}

// GetExtraction retrieves an extraction by ID
func (b *BoltDB) GetExtraction(id string) (*Extraction, error) {
	var e *Extraction
	err := b.db.View(func(tx *bbolt.Tx) error {
		var err error
		e, err = getExtraction(tx, []byte(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// FindByTextHash looks the hash up in the index and loads the extraction it points at
func (b *BoltDB) FindByTextHash(hash string) (*Extraction, error) {
	var e *Extraction
	err := b.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket([]byte(textHashBucket)).Get([]byte(hash))
		if id == nil {
			return fmt.Errorf("%w: text hash %s", ErrNotFound, hash)
		}
		var err error
		e, err = getExtraction(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListExtractions returns all extractions in key order
func (b *BoltDB) ListExtractions() ([]*Extraction, error) {
	extractions := make([]*Extraction, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(extractionsBucket)).ForEach(func(k, v []byte) error {
			var e Extraction
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("unmarshaling extraction %s: %w", k, err)
			}
			extractions = append(extractions, &e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return extractions, nil
}

// DeleteExtraction removes an extraction from the database. The hash index
// entry is only removed while it still points at this extraction.
func (b *BoltDB) DeleteExtraction(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		e, err := getExtraction(tx, []byte(id))
		if err != nil {
			return err
		}

		hashes := tx.Bucket([]byte(textHashBucket))
		if e.TextHash != "" && string(hashes.Get([]byte(e.TextHash))) == id {
			if err := hashes.Delete([]byte(e.TextHash)); err != nil {
				return err
			}
		}
		return tx.Bucket([]byte(extractionsBucket)).Delete([]byte(id))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

func getExtraction(tx *bbolt.Tx, id []byte) (*Extraction, error) {
	data := tx.Bucket([]byte(extractionsBucket)).Get(id)
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var e Extraction
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshaling extraction: %w", err)
	}
	return &e, nil
}
