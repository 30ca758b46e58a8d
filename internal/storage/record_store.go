// ABOUTME: Interface definition for beer record storage.
// ABOUTME: Defines the contract for loading, saving, and change detection of the catalog file.
package storage

import (
	"github.com/2389-research/kultpiva/internal/models"
)

// RecordStore defines persistence for the ordered beer record list.
type RecordStore interface {
	// Load reads the persisted records. A missing document yields an empty list.
	// A malformed document yields an empty list and an error; the file is left as is.
	Load() ([]*models.BeerRecord, error)

	// Save overwrites the document with the full list in the given order.
	Save(records []*models.BeerRecord) error

	// Changed reports whether the document differs from what was last loaded or saved.
	Changed() (bool, error)

	// Path returns the location of the persisted document.
	Path() string

	// Close releases any resources held by the store.
	Close() error
}
