package crud

import (
	"context"
	"errors"
)

// Document is a flat document as stored by a driver. Values are plain Go
// types (strings, bools, numbers, nested maps/slices).
type Document = map[string]any

// Filter is a flat AND-of-equality predicate map passed through to the
// driver as-is.
type Filter = map[string]any

// ErrNoDocument is returned by driver lookups when no document matches.
// The handler translates it into ErrNotFound or a boolean depending on the
// operation.
var ErrNoDocument = errors.New("strata: no matching document")

// Database is a handle to a document store addressed by collection name.
//
// Implementations ship in the mongostore, ddbstore and memstore packages.
// A Database holds no per-operation state and must be safe for concurrent
// use.
type Database interface {
	// Collection returns the named collection. Collections spring into
	// existence on first write; reading a missing collection behaves like
	// reading an empty one.
	Collection(name string) Collection
}

// Collection is the per-collection driver surface the CRUD handler consumes.
//
// Drivers own the store's native identity type: IDFilter parses the string
// form into a native identity filter, FormatID renders a driver-assigned
// identity back to a string, and every document returned from a read carries
// the identity normalized to a string under the "id" key.
type Collection interface {
	// FindOne returns the first document matching filter, or ErrNoDocument.
	FindOne(ctx context.Context, filter Filter) (Document, error)

	// Find returns a lazy cursor over documents matching filter. Nothing
	// is executed until the cursor is drained.
	Find(ctx context.Context, filter Filter) Cursor

	// CountDocuments returns the number of documents matching filter.
	CountDocuments(ctx context.Context, filter Filter) (int64, error)

	// InsertOne inserts a document, assigning a fresh identity.
	InsertOne(ctx context.Context, doc Document) (InsertOneResult, error)

	// InsertMany inserts documents as one bulk call. Partial-failure
	// semantics are whatever the underlying store provides.
	InsertMany(ctx context.Context, docs []Document) (InsertManyResult, error)

	// UpdateOne merges the given fields into the first document matching
	// filter. Fields not present in set are left untouched.
	UpdateOne(ctx context.Context, filter Filter, set Document) (UpdateResult, error)

	// DeleteOne removes the first document matching filter.
	DeleteOne(ctx context.Context, filter Filter) (DeleteResult, error)

	// IDFilter builds an identity filter from the string form of an id.
	// It fails when the string cannot be parsed into the store's native
	// identity type.
	IDFilter(id string) (Filter, error)

	// FormatID renders a driver-native identity as a string.
	FormatID(id any) string
}

// Cursor is a lazy, finite query. Sort and Limit configure the query before
// it runs; All executes it and drains every matching document into a slice.
type Cursor interface {
	// Sort orders results by the given field, ascending. Unknown fields
	// are passed through to the store as-is.
	Sort(field string) Cursor

	// Limit caps the number of returned documents.
	Limit(n int64) Cursor

	// All executes the query and returns all matching documents.
	All(ctx context.Context) ([]Document, error)
}

// InsertOneResult reports the identity assigned by an insert.
type InsertOneResult struct {
	InsertedID any
}

// InsertManyResult reports the identities assigned by a bulk insert,
// in input order.
type InsertManyResult struct {
	InsertedIDs []any
}

// UpdateResult reports the store's acknowledgement of an update.
type UpdateResult struct {
	Acknowledged  bool
	MatchedCount  int64
	ModifiedCount int64
}

// DeleteResult reports the store's acknowledgement of a delete.
type DeleteResult struct {
	Acknowledged bool
	DeletedCount int64
}
