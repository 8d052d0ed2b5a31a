package crud

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/jacentio/strata/schema"
)

// DefaultListLimit caps List results when no limit is given.
const DefaultListLimit = 100

// Handler is a generic CRUD handler parametrized over the create, read and
// update shapes of one entity. It owns a collection name and the behavior
// flags set at construction, and nothing else: every operation is an
// independent call against the Database handle it is given, so a Handler is
// safe to share across concurrent callers.
//
// Concurrent mutations of the same record are not coordinated here; the
// store's single-command atomicity is the only guarantee.
type Handler[C, R, U any] struct {
	collection string
	cfg        Config
	readShape  schema.Shape
}

// New constructs a Handler for a collection. The read shape R is verified
// once against the field-groups implied by cfg: identity always, timestamps
// and soft-deletion when enabled. A read type missing a required field
// fails with schema.ErrInvalidConfiguration.
func New[C, R, U any](collection string, cfg Config) (*Handler[C, R, U], error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: empty collection name", schema.ErrInvalidConfiguration)
	}
	cfg.validate()

	shape, err := schema.Compose(schema.RoleRead, schema.Options{
		SoftDelete: cfg.SoftDelete,
		Timestamps: cfg.Timestamps,
	})
	if err != nil {
		return nil, err
	}
	if err := shape.Conforms(reflect.TypeOf((*R)(nil)).Elem()); err != nil {
		return nil, err
	}

	return &Handler[C, R, U]{
		collection: collection,
		cfg:        cfg,
		readShape:  shape,
	}, nil
}

// Collection returns the collection name the handler addresses.
func (h *Handler[C, R, U]) Collection() string { return h.collection }

// ReadShape returns the composed read shape descriptor.
func (h *Handler[C, R, U]) ReadShape() schema.Shape { return h.readShape }

// IDExists reports whether a record with the given id exists. A well-formed
// id never produces an error here; a malformed one fails with ErrInvalidID.
func (h *Handler[C, R, U]) IDExists(ctx context.Context, db Database, id string) (bool, error) {
	col := db.Collection(h.collection)
	filter, err := h.idFilter(col, id)
	if err != nil {
		return false, err
	}

	_, err = col.FindOne(ctx, filter)
	if errors.Is(err, ErrNoDocument) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsSoftDeleted reports whether the record with the given id carries the
// deletion marker. It fails with ErrNotFound when no record matches.
// Records written before soft deletion was enabled count as active.
func (h *Handler[C, R, U]) IsSoftDeleted(ctx context.Context, db Database, id string) (bool, error) {
	col := db.Collection(h.collection)
	filter, err := h.idFilter(col, id)
	if err != nil {
		return false, err
	}

	doc, err := col.FindOne(ctx, filter)
	if errors.Is(err, ErrNoDocument) {
		return false, fmt.Errorf("%w: %s/%s", ErrNotFound, h.collection, id)
	}
	if err != nil {
		return false, err
	}
	return isSoftDeleted(doc), nil
}

// Count returns the total number of records in the collection, deleted or
// not.
func (h *Handler[C, R, U]) Count(ctx context.Context, db Database) (int64, error) {
	return db.Collection(h.collection).CountDocuments(ctx, Filter{})
}

// ListOptions configures List.
type ListOptions struct {
	// SortBy orders results by a field, ascending. Unknown fields are
	// passed through to the store as-is.
	SortBy string

	// Limit caps the result size. Zero means DefaultListLimit.
	Limit int64

	// Filters is a flat AND-of-equality predicate map.
	Filters Filter
}

// List returns at most opts.Limit raw records matching the equality
// filters, fully drained before return.
func (h *Handler[C, R, U]) List(ctx context.Context, db Database, opts ListOptions) ([]Document, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}

	cur := db.Collection(h.collection).Find(ctx, opts.Filters)
	if opts.SortBy != "" {
		cur = cur.Sort(opts.SortBy)
	}
	return cur.Limit(opts.Limit).All(ctx)
}

// GetByID fetches a record and parses it into the read shape. It fails with
// ErrNotFound when no record matches, and with a ValidationError when the
// raw record does not fit the shape.
func (h *Handler[C, R, U]) GetByID(ctx context.Context, db Database, id string) (R, error) {
	var zero R
	col := db.Collection(h.collection)
	filter, err := h.idFilter(col, id)
	if err != nil {
		return zero, err
	}

	doc, err := col.FindOne(ctx, filter)
	if errors.Is(err, ErrNoDocument) {
		return zero, fmt.Errorf("%w: %s/%s", ErrNotFound, h.collection, id)
	}
	if err != nil {
		return zero, err
	}
	return decodeDocument[R](h.collection, doc)
}

// ExistsBy reports whether any record has the given field equal to value.
func (h *Handler[C, R, U]) ExistsBy(ctx context.Context, db Database, field string, value any) (bool, error) {
	_, err := db.Collection(h.collection).FindOne(ctx, Filter{field: value})
	if errors.Is(err, ErrNoDocument) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindOneBy fetches the first record with the given field equal to value
// and parses it into the read shape. It fails with ErrNotFound when no
// record matches.
func (h *Handler[C, R, U]) FindOneBy(ctx context.Context, db Database, field string, value any) (R, error) {
	var zero R

	doc, err := db.Collection(h.collection).FindOne(ctx, Filter{field: value})
	if errors.Is(err, ErrNoDocument) {
		return zero, fmt.Errorf("%w: %s[%s=%v]", ErrNotFound, h.collection, field, value)
	}
	if err != nil {
		return zero, err
	}
	return decodeDocument[R](h.collection, doc)
}

// Create serializes the create shape, merges defaults for fields the shape
// does not carry (defaults never override fields present in item), stamps
// timestamps when enabled, inserts, and invokes OnCreate. It returns the
// assigned identity as a string.
//
// A hook error propagates after the insert has committed; the returned id
// is still valid in that case.
func (h *Handler[C, R, U]) Create(ctx context.Context, db Database, item C, defaults Document) (string, error) {
	doc, err := encodeDocument(item)
	if err != nil {
		return "", fmt.Errorf("encode create shape: %w", err)
	}
	applyDefaults(doc, defaults)
	if h.cfg.Timestamps {
		now := h.timestamp()
		doc[schema.FieldCreatedAt] = now
		doc[schema.FieldUpdatedAt] = now
	}

	col := db.Collection(h.collection)
	result, err := col.InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}
	id := col.FormatID(result.InsertedID)

	h.cfg.Logger.Debug("created item", "collection", h.collection, "id", id)

	if err := h.cfg.Hooks.OnCreate(ctx, db, []string{id}); err != nil {
		return id, err
	}
	return id, nil
}

// CreateMany applies the same per-item merge and stamp policy as Create and
// performs one bulk insert. Partial-failure semantics are inherited from
// the driver's bulk insert; this layer adds no atomicity of its own.
// OnCreate is invoked once with all assigned ids.
func (h *Handler[C, R, U]) CreateMany(ctx context.Context, db Database, items []C, defaults Document) ([]string, error) {
	docs := make([]Document, 0, len(items))
	for _, item := range items {
		doc, err := encodeDocument(item)
		if err != nil {
			return nil, fmt.Errorf("encode create shape: %w", err)
		}
		applyDefaults(doc, defaults)
		if h.cfg.Timestamps {
			now := h.timestamp()
			doc[schema.FieldCreatedAt] = now
			doc[schema.FieldUpdatedAt] = now
		}
		docs = append(docs, doc)
	}

	col := db.Collection(h.collection)
	result, err := col.InsertMany(ctx, docs)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(result.InsertedIDs))
	for _, insertedID := range result.InsertedIDs {
		ids = append(ids, col.FormatID(insertedID))
	}

	h.cfg.Logger.Debug("created items", "collection", h.collection, "count", len(ids))

	if err := h.cfg.Hooks.OnCreate(ctx, db, ids); err != nil {
		return ids, err
	}
	return ids, nil
}

// Update applies a sparse patch: only fields explicitly set on the update
// shape are written, identity and created_at are never touched, and
// updated_at is stamped when timestamping is enabled. It returns false
// without error when no record matches the id.
//
// Deletion state is not checked; a soft-deleted record can still be
// updated.
func (h *Handler[C, R, U]) Update(ctx context.Context, db Database, id string, item U) (bool, error) {
	exists, err := h.IDExists(ctx, db, id)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	set, err := encodeDocument(item)
	if err != nil {
		return false, fmt.Errorf("encode update shape: %w", err)
	}
	if h.cfg.Timestamps {
		set[schema.FieldUpdatedAt] = h.timestamp()
	}

	col := db.Collection(h.collection)
	filter, err := h.idFilter(col, id)
	if err != nil {
		return false, err
	}
	result, err := col.UpdateOne(ctx, filter, set)
	if err != nil {
		return false, err
	}

	h.cfg.Logger.Debug("updated item", "collection", h.collection, "id", id)

	if err := h.cfg.Hooks.OnUpdate(ctx, db, id); err != nil {
		return result.Acknowledged, err
	}
	return result.Acknowledged, nil
}

// UpdateFields merges raw fields into a record, stamping updated_at when
// timestamping is enabled. It is the internal patch path for server-driven
// state changes (verification flags, counters) and does not invoke
// OnUpdate. It returns false without error when no record matches.
func (h *Handler[C, R, U]) UpdateFields(ctx context.Context, db Database, id string, fields Document) (bool, error) {
	col := db.Collection(h.collection)
	filter, err := h.idFilter(col, id)
	if err != nil {
		return false, err
	}

	set := Document{}
	for k, v := range fields {
		set[k] = v
	}
	if h.cfg.Timestamps {
		set[schema.FieldUpdatedAt] = h.timestamp()
	}

	result, err := col.UpdateOne(ctx, filter, set)
	if err != nil {
		return false, err
	}
	if result.MatchedCount == 0 {
		return false, nil
	}
	return result.Acknowledged, nil
}

// Delete terminates a record. A record already carrying the deletion
// marker is removed for good, whatever the configuration. Otherwise, with
// soft delete enabled the marker is flipped and the record stays in place;
// without it the record is removed. OnDelete runs after the store call in
// every branch. It returns false without error when no record matches.
func (h *Handler[C, R, U]) Delete(ctx context.Context, db Database, id string) (bool, error) {
	col := db.Collection(h.collection)
	filter, err := h.idFilter(col, id)
	if err != nil {
		return false, err
	}

	doc, err := col.FindOne(ctx, filter)
	if errors.Is(err, ErrNoDocument) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var acknowledged bool
	switch {
	case isSoftDeleted(doc):
		// Second delete of a soft-deleted record is irreversible.
		result, err := col.DeleteOne(ctx, filter)
		if err != nil {
			return false, err
		}
		acknowledged = result.Acknowledged
		h.cfg.Logger.Debug("hard-deleted item", "collection", h.collection, "id", id)
	case h.cfg.SoftDelete:
		now := h.timestamp()
		set := Document{
			schema.FieldIsDeleted: true,
			schema.FieldDeletedAt: now,
		}
		if h.cfg.Timestamps {
			set[schema.FieldUpdatedAt] = now
		}
		result, err := col.UpdateOne(ctx, filter, set)
		if err != nil {
			return false, err
		}
		acknowledged = result.Acknowledged
		h.cfg.Logger.Debug("soft-deleted item", "collection", h.collection, "id", id)
	default:
		result, err := col.DeleteOne(ctx, filter)
		if err != nil {
			return false, err
		}
		acknowledged = result.Acknowledged
		h.cfg.Logger.Debug("hard-deleted item", "collection", h.collection, "id", id)
	}

	if err := h.cfg.Hooks.OnDelete(ctx, db, id); err != nil {
		return acknowledged, err
	}
	return acknowledged, nil
}

// timestamp renders the current time in the storage layout.
func (h *Handler[C, R, U]) timestamp() string {
	return h.cfg.Now().UTC().Format(timeLayout)
}

// idFilter builds the native identity filter, mapping parse failures to
// ErrInvalidID.
func (h *Handler[C, R, U]) idFilter(col Collection, id string) (Filter, error) {
	filter, err := col.IDFilter(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidID, id, err)
	}
	return filter, nil
}
