// Package crud provides a generic CRUD handler over schemaless document
// stores.
//
// A [Handler] is parametrized over the create, read and update shapes of one
// entity and owns a collection name plus two behavior flags: timestamping
// (created_at set once at insertion, updated_at on every mutating call) and
// soft deletion (a two-step delete: the first delete flips the is_deleted
// marker, a second delete removes the record for good).
//
// # Store drivers
//
// Handlers talk to any store through the [Database], [Collection] and
// [Cursor] interfaces. Ready-made drivers ship in sibling packages:
// mongostore (MongoDB), ddbstore (DynamoDB) and memstore (in-memory, for
// tests and local development). Drivers own the store's native identity
// type and normalize it to a string under the "id" key on read.
//
// # Defining an entity
//
// Read shapes embed the field-group structs from the schema package:
//
//	type UserRead struct {
//	    schema.Identity
//	    schema.Timestamps
//	    Name string `json:"name"`
//	    Age  int    `json:"age"`
//	}
//
//	type UserCreate struct {
//	    Name string `json:"name"`
//	    Age  int    `json:"age"`
//	}
//
//	type UserUpdate struct {
//	    Name *string `json:"name,omitempty"`
//	    Age  *int    `json:"age,omitempty"`
//	}
//
//	users, err := crud.New[UserCreate, UserRead, UserUpdate]("users", crud.DefaultConfig())
//
// Update shapes use pointers or omitempty so that updates stay sparse: only
// fields explicitly set are written.
//
// # Lifecycle hooks
//
// The [Hooks] interface receives OnCreate, OnUpdate and OnDelete callbacks
// after each mutating store call commits. Hook errors propagate to the
// caller; the store write is not rolled back. [CascadeDeleter] and
// stream.Publisher are ready-made consumers.
//
// # Errors
//
// The package defines domain-specific errors:
//
//   - [ErrNotFound] - no record matches (read operations only)
//   - [ErrInvalidID] - id string does not parse into the native identity
//   - [ValidationError] - record does not fit the declared read shape
//   - schema.ErrInvalidConfiguration - bad role, collision or read type
//
// Update and Delete report a missing record as (false, nil) rather than an
// error. Store-originated failures propagate unmodified; there is no retry
// layer here.
package crud
