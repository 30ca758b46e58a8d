// ABOUTME: Core data model for beer records and the input used to create them.
// ABOUTME: Provides on-disk field names, validation, and stable session identifiers.
package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// On-disk field names. Existing data files use these keys verbatim.
const (
	FieldName     = "Название"
	FieldType     = "Тип"
	FieldPrice    = "Цена"
	FieldGreeting = "Приветствие"
)

// Fields lists the record fields in display and serialization order.
var Fields = []string{FieldName, FieldType, FieldPrice, FieldGreeting}

// recordNamespace seeds the SHA-1 identifiers derived for records.
var recordNamespace = uuid.MustParse("6f1c3c52-1d0e-4b7a-9d55-5b2a4f0e8c11")

// BeerRecord is one catalog entry. ID is never persisted.
type BeerRecord struct {
	ID       uuid.UUID `json:"-"`
	Name     string    `json:"Название"`
	Type     string    `json:"Тип"`
	Price    string    `json:"Цена"`
	Greeting string    `json:"Приветствие"`
}

// Value returns the record's value for the given on-disk field name.
func (r *BeerRecord) Value(field string) string {
	switch field {
	case FieldName:
		return r.Name
	case FieldType:
		return r.Type
	case FieldPrice:
		return r.Price
	case FieldGreeting:
		return r.Greeting
	}
	return ""
}

// ShortID returns the first 8 characters of the record ID.
func (r *BeerRecord) ShortID() string {
	return r.ID.String()[:8]
}

func (r *BeerRecord) sameContent(o *BeerRecord) bool {
	return r.Name == o.Name && r.Type == o.Type && r.Price == o.Price && r.Greeting == o.Greeting
}

// deriveID hashes the record content together with its occurrence index among
// identical records, so duplicates get distinct IDs that survive a restart.
func deriveID(r *BeerRecord, occurrence int) uuid.UUID {
	key := strings.Join([]string{r.Name, r.Type, r.Price, r.Greeting, fmt.Sprint(occurrence)}, "\x00")
	return uuid.NewSHA1(recordNamespace, []byte(key))
}

// AssignIDs sets the ID of every record in order.
func AssignIDs(records []*BeerRecord) {
	for i, r := range records {
		r.ID = deriveID(r, countSame(records[:i], r))
	}
}

// NextID returns the ID for r when appended to records: the lowest occurrence
// index whose ID no record in records already holds. Deleting an earlier
// duplicate leaves a gap that is reused here.
func NextID(records []*BeerRecord, r *BeerRecord) uuid.UUID {
	taken := make(map[uuid.UUID]bool, len(records))
	for _, o := range records {
		taken[o.ID] = true
	}
	for occurrence := 0; ; occurrence++ {
		if id := deriveID(r, occurrence); !taken[id] {
			return id
		}
	}
}

func countSame(records []*BeerRecord, r *BeerRecord) int {
	n := 0
	for _, o := range records {
		if o.sameContent(r) {
			n++
		}
	}
	return n
}

// BeerInput carries the user-entered fields for a new record.
type BeerInput struct {
	Name     string `json:"Название" validate:"required"`
	Type     string `json:"Тип" validate:"required"`
	Price    string `json:"Цена" validate:"required"`
	Greeting string `json:"Приветствие" validate:"required"`
}

// ValidationError lists the on-disk names of fields that were empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required field(s) empty: %s", strings.Join(e.Fields, ", "))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize returns a copy with surrounding whitespace trimmed from every field.
func (in BeerInput) Normalize() BeerInput {
	return BeerInput{
		Name:     strings.TrimSpace(in.Name),
		Type:     strings.TrimSpace(in.Type),
		Price:    strings.TrimSpace(in.Price),
		Greeting: strings.TrimSpace(in.Greeting),
	}
}

// Validate rejects inputs with any field empty or whitespace-only.
func (in BeerInput) Validate() error {
	n := in.Normalize()
	err := validate.Struct(n)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, fe.Field())
	}
	return ve
}

// NewBeerRecord validates the input and builds a record from its trimmed fields.
// The ID is left zero; callers assign it relative to the list the record joins.
func NewBeerRecord(in BeerInput) (*BeerRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	n := in.Normalize()
	return &BeerRecord{
		Name:     n.Name,
		Type:     n.Type,
		Price:    n.Price,
		Greeting: n.Greeting,
	}, nil
}
