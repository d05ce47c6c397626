package models

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// recordIDTag is the CBOR tag SurrealDB uses for record identifiers,
// encoded as [table, key].
const recordIDTag = 8

// ID is an opaque entity identifier assigned by the store on first save.
// The empty ID means "not saved yet".
type ID string

func (id ID) String() string {
	return string(id)
}

func (id ID) IsZero() bool {
	return id == ""
}

// UnmarshalCBOR accepts either a plain text identifier or a SurrealDB record
// id (tag 8), in which case only the key part is kept.
func (id *ID) UnmarshalCBOR(data []byte) error {
	var s string
	if err := cbor.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}

	var tag cbor.RawTag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to decode id: %w", err)
	}
	if tag.Number != recordIDTag {
		return fmt.Errorf("unexpected cbor tag %d for id", tag.Number)
	}

	var parts []any
	if err := cbor.Unmarshal(tag.Content, &parts); err != nil {
		return fmt.Errorf("failed to decode record id: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("record id has %d parts, want 2", len(parts))
	}
	switch key := parts[1].(type) {
	case string:
		*id = ID(key)
	default:
		*id = ID(fmt.Sprint(key))
	}
	return nil
}

// Identifiable is anything carrying an entity identifier.
type Identifiable interface {
	GetID() ID
}

// Ref is a relation to another entity, held by identifier only.
type Ref struct {
	ID ID `json:"id"`
}

// RefTo returns a reference to the entity with identifier id.
func RefTo(id ID) *Ref {
	return &Ref{ID: id}
}

func (r Ref) GetID() ID {
	return r.ID
}

// Equal reports whether a and b denote the same saved entity. Unsaved
// instances (empty ID) are never equal to anything, themselves included.
func Equal[T Identifiable](a, b T) bool {
	if a.GetID().IsZero() || b.GetID().IsZero() {
		return false
	}
	return a.GetID() == b.GetID()
}

// Unique drops later duplicates of saved items and keeps every unsaved one.
func Unique[T Identifiable](items []T) []T {
	if len(items) == 0 {
		return items
	}
	seen := make(map[ID]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		id := item.GetID()
		if id.IsZero() {
			out = append(out, item)
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, item)
	}
	return out
}
