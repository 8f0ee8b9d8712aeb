package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Canonical field names.
const (
	FieldCreatedAt    = "createdAt"
	FieldUpdatedAt    = "updatedAt"
	FieldDateCreation = "dateCreation"
)

// aliases maps the alternate spellings upstream services use to the
// canonical name. Record lookups only ever use canonical names.
var aliases = map[string]string{ //nolint:gochecknoglobals // read-only table
	"created_at":    FieldCreatedAt,
	"updated_at":    FieldUpdatedAt,
	"date_creation": FieldDateCreation,
}

// ErrNotList is returned by DecodeList when the payload is not a JSON array.
var ErrNotList = errors.New("record: payload is not a list")

// Normalize renames aliased fields to their canonical names in place. When
// both spellings are present the canonical one wins.
func Normalize(r Record) Record {
	for alias, canonical := range aliases {
		v, ok := r[alias]
		if !ok {
			continue
		}
		delete(r, alias)
		if cur, exists := r[canonical]; exists && !cur.IsNull() {
			continue
		}
		r[canonical] = v
	}
	return r
}

// DecodeList parses a JSON array of objects into records. A JSON null yields
// a nil slice and ErrNotList. Non-object array elements are skipped.
func DecodeList(data []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("record: decode: %w", err)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, ErrNotList
	}
	out := make([]Record, 0, len(list))
	for _, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, FromMap(m))
	}
	return out, nil
}
