package crud

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jacentio/strata/schema"
)

// CascadeDeleter is a Hooks consumer that propagates a delete to the
// registered children of the deleted record: every child whose parent field
// matches the deleted id gets its deletion marker flipped.
//
// Propagation is marker-based and idempotent; a child already carrying the
// marker is simply stamped again. Grandchildren are not walked here — wire
// a CascadeDeleter on each child handler to cascade further.
type CascadeDeleter struct {
	NoopHooks

	collection string
	registry   *Registry
	logger     *slog.Logger
	now        func() time.Time
}

// NewCascadeDeleter builds a cascade consumer for the given parent
// collection. A nil logger falls back to slog.Default().
func NewCascadeDeleter(collection string, registry *Registry, logger *slog.Logger) *CascadeDeleter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CascadeDeleter{
		collection: collection,
		registry:   registry,
		logger:     logger,
		now:        time.Now,
	}
}

// OnDelete marks every registered child of the deleted record as deleted.
// A child that fails to update is logged and skipped; the cascade is
// idempotent and can be retried.
func (c *CascadeDeleter) OnDelete(ctx context.Context, db Database, id string) error {
	now := c.now().UTC().Format(timeLayout)

	for _, rel := range c.registry.ChildrenOf(c.collection) {
		col := db.Collection(rel.ChildCollection)

		children, err := col.Find(ctx, Filter{rel.ParentField: id}).All(ctx)
		if err != nil {
			return fmt.Errorf("query children in %q: %w", rel.ChildCollection, err)
		}

		c.logger.Info("cascading delete",
			"parent", c.collection,
			"id", id,
			"childCollection", rel.ChildCollection,
			"childCount", len(children),
		)

		for _, child := range children {
			childID, _ := child[schema.FieldID].(string)
			filter, err := col.IDFilter(childID)
			if err != nil {
				c.logger.Warn("skipping child with unusable id",
					"childCollection", rel.ChildCollection,
					"childId", childID,
					"error", err,
				)
				continue
			}

			_, err = col.UpdateOne(ctx, filter, Document{
				schema.FieldIsDeleted: true,
				schema.FieldDeletedAt: now,
				schema.FieldUpdatedAt: now,
			})
			if err != nil {
				c.logger.Warn("failed to mark child deleted",
					"childCollection", rel.ChildCollection,
					"childId", childID,
					"error", err,
				)
				// Idempotent, a retry of the parent delete picks it up.
				continue
			}
		}
	}

	return nil
}
