// ABOUTME: Pure list operations over the in-memory beer record sequence.
// ABOUTME: Provides add, remove-by-ID, lookup, substring filtering, and fuzzy ranking.
package storage

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"

	"github.com/2389-research/kultpiva/internal/models"
)

// Add returns records with r appended. r receives its ID relative to records.
// The caller saves afterwards.
func Add(records []*models.BeerRecord, r *models.BeerRecord) []*models.BeerRecord {
	r.ID = models.NextID(records, r)
	out := make([]*models.BeerRecord, 0, len(records)+1)
	out = append(out, records...)
	return append(out, r)
}

// Remove returns records without the first record whose ID matches, and whether
// one was removed. The input slice is not modified.
func Remove(records []*models.BeerRecord, id uuid.UUID) ([]*models.BeerRecord, bool) {
	for i, r := range records {
		if r.ID == id {
			out := make([]*models.BeerRecord, 0, len(records)-1)
			out = append(out, records[:i]...)
			return append(out, records[i+1:]...), true
		}
	}
	return records, false
}

// Find returns the record with the given ID, or nil.
func Find(records []*models.BeerRecord, id uuid.UUID) *models.BeerRecord {
	if id == uuid.Nil {
		return nil
	}
	for _, r := range records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// FindByPrefix returns records whose ID string starts with prefix or whose
// name equals prefix exactly.
func FindByPrefix(records []*models.BeerRecord, prefix string) []*models.BeerRecord {
	var matches []*models.BeerRecord
	for _, r := range records {
		if strings.HasPrefix(r.ID.String(), strings.ToLower(prefix)) || r.Name == prefix {
			matches = append(matches, r)
		}
	}
	return matches
}

// Filter returns the records whose name or type contains query, ignoring case.
// An empty query returns all records. Order is preserved.
func Filter(records []*models.BeerRecord, query string) []*models.BeerRecord {
	if query == "" {
		return records
	}
	fold := cases.Fold()
	needle := fold.String(query)

	var out []*models.BeerRecord
	for _, r := range records {
		if strings.Contains(fold.String(r.Name), needle) || strings.Contains(fold.String(r.Type), needle) {
			out = append(out, r)
		}
	}
	return out
}

// recordSource adapts a record list to fuzzy.Source over "name type".
type recordSource []*models.BeerRecord

func (s recordSource) String(i int) string { return s[i].Name + " " + s[i].Type }
func (s recordSource) Len() int            { return len(s) }

// FuzzyFilter ranks records by fuzzy match of query against name and type,
// best match first. An empty query returns all records in order.
func FuzzyFilter(records []*models.BeerRecord, query string) []*models.BeerRecord {
	if query == "" {
		return records
	}
	matches := fuzzy.FindFrom(query, recordSource(records))
	out := make([]*models.BeerRecord, 0, len(matches))
	for _, m := range matches {
		out = append(out, records[m.Index])
	}
	return out
}
