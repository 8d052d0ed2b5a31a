package schema

import "time"

// Document field names managed by the CRUD layer.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
	FieldDeletedAt = "deleted_at"
	FieldIsDeleted = "is_deleted"
)

// IdentityGroup declares the store-assigned identity field. Drivers accept
// the store's native identity type or its string form and normalize to a
// string on read.
func IdentityGroup() FieldGroup {
	return FieldGroup{
		Name: "identity",
		Fields: []Field{
			{Name: FieldID, Type: TypeString},
		},
	}
}

// TimestampsGroup declares created_at (set once at insertion) and
// updated_at (reassigned on every mutating operation).
func TimestampsGroup() FieldGroup {
	return FieldGroup{
		Name: "timestamps",
		Fields: []Field{
			{Name: FieldCreatedAt, Type: TypeTimestamp},
			{Name: FieldUpdatedAt, Type: TypeTimestamp, Nullable: true},
		},
	}
}

// SoftDeletionGroup declares the soft-deletion marker fields.
func SoftDeletionGroup() FieldGroup {
	return FieldGroup{
		Name: "soft_deletion",
		Fields: []Field{
			{Name: FieldDeletedAt, Type: TypeTimestamp, Nullable: true},
			{Name: FieldIsDeleted, Type: TypeBool},
		},
	}
}

// Identity is the embeddable struct counterpart of IdentityGroup.
// Unknown extra fields from storage are ignored when decoding into a read
// shape, so older records remain readable.
type Identity struct {
	ID string `json:"id"`
}

// Timestamps is the embeddable struct counterpart of TimestampsGroup.
// Values are serialized as ISO-8601 strings in storage.
type Timestamps struct {
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// SoftDeletion is the embeddable struct counterpart of SoftDeletionGroup.
// IsDeleted defaults to false for records written before soft deletion was
// enabled on a collection.
type SoftDeletion struct {
	DeletedAt *time.Time `json:"deleted_at"`
	IsDeleted bool       `json:"is_deleted"`
}
