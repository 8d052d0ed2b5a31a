// Package schema composes data shapes for the strata CRUD layer.
//
// A Shape describes the document fields an entity exposes for one lifecycle
// role (create, read, update). Shapes are built once, at entity registration
// time, by merging reusable field-groups: identity, timestamps and soft
// deletion. Read shapes always carry the identity group; create and update
// shapes are unconstrained because identity and timestamps are assigned by
// the store layer, never by callers.
package schema

import (
	"errors"
	"fmt"
)

// Role identifies the lifecycle role a shape is composed for.
type Role string

const (
	// RoleCreate is the shape accepted by create operations.
	RoleCreate Role = "create"

	// RoleRead is the shape returned by read operations.
	RoleRead Role = "read"

	// RoleUpdate is the shape accepted by update operations.
	RoleUpdate Role = "update"
)

// ErrInvalidConfiguration is returned for unrecognized roles, field-group
// collisions and read types that do not carry a composed shape.
var ErrInvalidConfiguration = errors.New("strata: invalid configuration")

// FieldType is the document-level type of a composed field.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeBool      FieldType = "bool"
	TypeTimestamp FieldType = "timestamp"
)

// Field describes a single document field contributed by a field-group.
type Field struct {
	// Name is the document field name (matches the json tag of the
	// corresponding struct field).
	Name string

	// Type is the document-level type of the field.
	Type FieldType

	// Nullable marks fields that may be absent or null in storage.
	Nullable bool
}

// FieldGroup is a reusable, named set of fields composable into a shape.
type FieldGroup struct {
	Name   string
	Fields []Field
}

// Options selects which optional field-groups a read shape includes.
type Options struct {
	// SoftDelete includes the soft-deletion field-group.
	SoftDelete bool

	// Timestamps includes the timestamp field-group.
	Timestamps bool
}

// Shape is a composed, immutable field set for one lifecycle role.
type Shape struct {
	role   Role
	fields []Field
	byName map[string]Field
}

// Role returns the lifecycle role the shape was composed for.
func (s Shape) Role() Role { return s.role }

// Fields returns the composed fields in group order.
func (s Shape) Fields() []Field { return s.fields }

// Has reports whether the shape declares a field with the given name.
func (s Shape) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Compose builds the shape for a lifecycle role.
//
// For RoleRead the identity group is always included, the soft-deletion and
// timestamp groups are included per opts, and any extra groups are merged
// after the built-in ones. Two groups declaring the same field name fail
// with ErrInvalidConfiguration; there is no silent override.
//
// For RoleCreate and RoleUpdate the built-in groups are never injected
// (identity and timestamps are server-assigned) and only the extra groups
// are merged.
func Compose(role Role, opts Options, extra ...FieldGroup) (Shape, error) {
	var groups []FieldGroup

	switch role {
	case RoleRead:
		groups = append(groups, IdentityGroup())
		if opts.SoftDelete {
			groups = append(groups, SoftDeletionGroup())
		}
		if opts.Timestamps {
			groups = append(groups, TimestampsGroup())
		}
	case RoleCreate, RoleUpdate:
		// Writable shapes carry domain fields only.
	default:
		return Shape{}, fmt.Errorf("%w: unknown role %q", ErrInvalidConfiguration, role)
	}
	groups = append(groups, extra...)

	return merge(role, groups)
}

// merge flattens field-groups into one shape, rejecting name collisions.
func merge(role Role, groups []FieldGroup) (Shape, error) {
	shape := Shape{
		role:   role,
		byName: make(map[string]Field),
	}
	owner := make(map[string]string)

	for _, g := range groups {
		for _, f := range g.Fields {
			if prev, ok := owner[f.Name]; ok {
				return Shape{}, fmt.Errorf("%w: field %q declared by both %q and %q",
					ErrInvalidConfiguration, f.Name, prev, g.Name)
			}
			owner[f.Name] = g.Name
			shape.byName[f.Name] = f
			shape.fields = append(shape.fields, f)
		}
	}

	return shape, nil
}
