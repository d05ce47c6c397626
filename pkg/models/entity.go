package models

import (
	"slices"
	"time"
)

// Entity is a business record persisted in the store and mirrored into the
// search index. Implementations are pointer types.
type Entity interface {
	Identifiable
	SetID(ID)
	// Validate checks field constraints only; identifier rules belong to the
	// create and update paths.
	Validate() error
}

// Normalizer is implemented by entities that adjust their own fields before
// every save, such as audit columns or lowercased logins.
type Normalizer interface {
	Normalize(now time.Time)
}

// Auditable is implemented by entities with creation columns that are written
// once. Updates call KeepCreated with the stored version.
type Auditable interface {
	KeepCreated(stored Entity)
}

// Meta describes an entity kind independently of its Go type.
type Meta struct {
	// Name is the entity name used in alerts and errors, e.g. "jobHistory".
	Name string
	// Collection names the store table and the index kind, e.g. "job_history".
	Collection string
	// Path is the REST collection segment, e.g. "job-histories".
	Path string
	// Fields lists the JSON fields that can be used as sort keys.
	Fields []string
	// Paginated kinds answer list requests with pages instead of full lists.
	Paginated bool
}

// Sortable reports whether field can be used as a sort key.
func (m Meta) Sortable(field string) bool {
	return field == "id" || slices.Contains(m.Fields, field)
}

// Descriptor binds an entity kind to its Go type.
type Descriptor[E Entity] struct {
	Meta
	New func() E
}

func (d Descriptor[E]) Kind() Meta {
	return d.Meta
}

// Kind is satisfied by every Descriptor regardless of its type parameter.
type Kind interface {
	Kind() Meta
}
