// ABOUTME: JSON file storage for the beer catalog.
// ABOUTME: Reads and atomically rewrites a UTF-8 array of records with Cyrillic keys.
package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/2389-research/kultpiva/internal/models"
)

// DefaultFileName is the catalog file name used next to the executable.
const DefaultFileName = "beers_data.json"

// JSONStore keeps the catalog as a single indented JSON document.
type JSONStore struct {
	path string
	last [sha256.Size]byte // digest of the content last loaded or saved
}

// NewJSONStore creates a store for the document at path.
func NewJSONStore(path string) (*JSONStore, error) {
	if path == "" {
		return nil, fmt.Errorf("data file path is required")
	}
	return &JSONStore{
		path: path,
		last: sha256.Sum256(nil),
	}, nil
}

// Path returns the document location.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads and decodes the document, assigning record IDs in file order.
func (s *JSONStore) Load() ([]*models.BeerRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.last = sha256.Sum256(nil)
			return []*models.BeerRecord{}, nil
		}
		return []*models.BeerRecord{}, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	s.last = sha256.Sum256(data)

	records, err := decodeRecords(data)
	if err != nil {
		return []*models.BeerRecord{}, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return records, nil
}

// Save encodes records and replaces the document via a temp file and rename.
func (s *JSONStore) Save(records []*models.BeerRecord) error {
	data, err := encodeRecords(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	if err := atomicWrite(s.path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	s.last = sha256.Sum256(data)
	return nil
}

// Changed compares the document on disk against the last known content.
func (s *JSONStore) Changed() (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.last != sha256.Sum256(nil), nil
		}
		return false, err
	}
	return s.last != sha256.Sum256(data), nil
}

// Close releases any resources held by the store.
func (s *JSONStore) Close() error {
	return nil
}

func decodeRecords(data []byte) ([]*models.BeerRecord, error) {
	var raw []*models.BeerRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	records := make([]*models.BeerRecord, 0, len(raw))
	for _, r := range raw {
		if r != nil {
			records = append(records, r)
		}
	}
	models.AssignIDs(records)
	return records, nil
}

// encodeRecords writes two-space indented JSON without escaping non-ASCII or HTML characters.
func encodeRecords(records []*models.BeerRecord) ([]byte, error) {
	if records == nil {
		records = []*models.BeerRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
