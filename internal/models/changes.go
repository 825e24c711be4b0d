package models

import (
	"fmt"
	"strings"
)

// Field is a tracked entry attribute. Declaration order is the display priority.
type Field uint8

const (
	FieldPrice Field = iota
	FieldStock
	FieldDescription
	FieldLongDescription
	FieldName
	FieldImage

	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldPrice:           "price",
	FieldStock:           "stock",
	FieldDescription:     "description",
	FieldLongDescription: "long_description",
	FieldName:            "name",
	FieldImage:           "image",
}

func (f Field) String() string {
	if f >= fieldCount {
		return fmt.Sprintf("field(%d)", uint8(f))
	}
	return fieldNames[f]
}

// ParseField resolves a configuration token such as "long_description".
func ParseField(s string) (Field, error) {
	token := strings.ToLower(strings.TrimSpace(s))
	for i, name := range fieldNames {
		if name == token {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", s)
}

// FieldSet is a set of tracked fields.
type FieldSet uint8

// AllFields tracks every field.
const AllFields FieldSet = 1<<fieldCount - 1

// NewFieldSet builds a set from the given fields.
func NewFieldSet(fields ...Field) FieldSet {
	var s FieldSet
	for _, f := range fields {
		s = s.With(f)
	}
	return s
}

// ParseFieldSet builds a set from configuration tokens. An empty list means every field.
func ParseFieldSet(tokens []string) (FieldSet, error) {
	var s FieldSet
	for _, t := range tokens {
		if strings.TrimSpace(t) == "" {
			continue
		}
		f, err := ParseField(t)
		if err != nil {
			return 0, err
		}
		s = s.With(f)
	}
	if s == 0 {
		return AllFields, nil
	}
	return s, nil
}

func (s FieldSet) With(f Field) FieldSet { return s | 1<<f }

func (s FieldSet) Has(f Field) bool { return s&(1<<f) != 0 }

func (s FieldSet) Empty() bool { return s == 0 }

// Fields lists the members in priority order.
func (s FieldSet) Fields() []Field {
	var out []Field
	for f := Field(0); f < fieldCount; f++ {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (s FieldSet) String() string {
	fields := s.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}
	return strings.Join(names, ",")
}

// ChangeRecord is a classified difference for one entry: NewEntry or UpdatedEntry.
type ChangeRecord interface {
	// Item returns the entry as currently listed.
	Item() CatalogEntry
	isChangeRecord()
}

// NewEntry - an entry whose id was absent from the previous snapshot.
type NewEntry struct {
	Entry CatalogEntry
}

func (r NewEntry) Item() CatalogEntry { return r.Entry }
func (NewEntry) isChangeRecord()      {}

// UpdatedEntry - an entry present in both snapshots with at least one tracked field changed.
type UpdatedEntry struct {
	Previous CatalogEntry
	Current  CatalogEntry
	Changed  FieldSet
}

func (r UpdatedEntry) Item() CatalogEntry { return r.Current }
func (UpdatedEntry) isChangeRecord()      {}
