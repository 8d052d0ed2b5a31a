// Package memstore is an in-memory crud.Database for tests and local
// development.
//
// Documents are deep-copied on every write and read, so callers can never
// mutate stored state through a returned document. Identities are uuid
// strings. The zero limits of a real store (latency, pagination) do not
// apply; semantics otherwise follow the driver contract, including
// insertion-order iteration for unsorted finds.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/jacentio/strata/crud"
	"github.com/jacentio/strata/internal/ident"
)

// DB is an in-memory document store. The zero value is not usable; call
// New.
type DB struct {
	mu          sync.RWMutex
	collections map[string]*records
}

// records holds one collection's documents in insertion order.
type records struct {
	byID  map[string]crud.Document
	order []string
}

// New creates an empty in-memory store.
func New() *DB {
	return &DB{
		collections: make(map[string]*records),
	}
}

// Collection returns a handle to the named collection. The collection
// springs into existence on first write.
func (d *DB) Collection(name string) crud.Collection {
	return &collection{db: d, name: name}
}

type collection struct {
	db   *DB
	name string
}

func (c *collection) FindOne(_ context.Context, filter crud.Filter) (crud.Document, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()

	recs := c.db.collections[c.name]
	if recs == nil {
		return nil, crud.ErrNoDocument
	}
	for _, id := range recs.order {
		if matches(recs.byID[id], filter) {
			return clone(recs.byID[id]), nil
		}
	}
	return nil, crud.ErrNoDocument
}

func (c *collection) Find(_ context.Context, filter crud.Filter) crud.Cursor {
	return &cursor{col: c, filter: filter}
}

func (c *collection) CountDocuments(_ context.Context, filter crud.Filter) (int64, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()

	recs := c.db.collections[c.name]
	if recs == nil {
		return 0, nil
	}
	var n int64
	for _, id := range recs.order {
		if matches(recs.byID[id], filter) {
			n++
		}
	}
	return n, nil
}

func (c *collection) InsertOne(_ context.Context, doc crud.Document) (crud.InsertOneResult, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	id := c.insertLocked(doc)
	return crud.InsertOneResult{InsertedID: id}, nil
}

func (c *collection) InsertMany(_ context.Context, docs []crud.Document) (crud.InsertManyResult, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	ids := make([]any, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, c.insertLocked(doc))
	}
	return crud.InsertManyResult{InsertedIDs: ids}, nil
}

func (c *collection) insertLocked(doc crud.Document) string {
	recs := c.db.collections[c.name]
	if recs == nil {
		recs = &records{byID: make(map[string]crud.Document)}
		c.db.collections[c.name] = recs
	}

	id := ident.New()
	stored := clone(doc)
	stored["id"] = id
	recs.byID[id] = stored
	recs.order = append(recs.order, id)
	return id
}

func (c *collection) UpdateOne(_ context.Context, filter crud.Filter, set crud.Document) (crud.UpdateResult, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	recs := c.db.collections[c.name]
	if recs == nil {
		return crud.UpdateResult{Acknowledged: true}, nil
	}
	for _, id := range recs.order {
		if !matches(recs.byID[id], filter) {
			continue
		}
		patch := clone(set)
		for k, v := range patch {
			recs.byID[id][k] = v
		}
		return crud.UpdateResult{
			Acknowledged:  true,
			MatchedCount:  1,
			ModifiedCount: 1,
		}, nil
	}
	return crud.UpdateResult{Acknowledged: true}, nil
}

func (c *collection) DeleteOne(_ context.Context, filter crud.Filter) (crud.DeleteResult, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	recs := c.db.collections[c.name]
	if recs == nil {
		return crud.DeleteResult{Acknowledged: true}, nil
	}
	for i, id := range recs.order {
		if !matches(recs.byID[id], filter) {
			continue
		}
		delete(recs.byID, id)
		recs.order = append(recs.order[:i], recs.order[i+1:]...)
		return crud.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
	}
	return crud.DeleteResult{Acknowledged: true}, nil
}

func (c *collection) IDFilter(id string) (crud.Filter, error) {
	canonical, err := ident.Parse(id)
	if err != nil {
		return nil, err
	}
	return crud.Filter{"id": canonical}, nil
}

func (c *collection) FormatID(id any) string {
	if s, ok := id.(string); ok {
		return s
	}
	return fmt.Sprint(id)
}

// cursor is a lazy query; nothing runs until All.
type cursor struct {
	col    *collection
	filter crud.Filter
	sortBy string
	limit  int64
}

func (cur *cursor) Sort(field string) crud.Cursor {
	next := *cur
	next.sortBy = field
	return &next
}

func (cur *cursor) Limit(n int64) crud.Cursor {
	next := *cur
	next.limit = n
	return &next
}

func (cur *cursor) All(_ context.Context) ([]crud.Document, error) {
	cur.col.db.mu.RLock()
	defer cur.col.db.mu.RUnlock()

	recs := cur.col.db.collections[cur.col.name]
	if recs == nil {
		return nil, nil
	}

	var out []crud.Document
	for _, id := range recs.order {
		if matches(recs.byID[id], cur.filter) {
			out = append(out, clone(recs.byID[id]))
		}
	}

	if cur.sortBy != "" {
		field := cur.sortBy
		sort.SliceStable(out, func(i, j int) bool {
			return lessValue(out[i][field], out[j][field])
		})
	}
	if cur.limit > 0 && int64(len(out)) > cur.limit {
		out = out[:cur.limit]
	}
	return out, nil
}

// clone deep-copies a document via a JSON round trip, which also normalizes
// numbers to float64 so equality behaves uniformly.
func clone(doc crud.Document) crud.Document {
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("memstore: unmarshalable document: %v", err))
	}
	var out crud.Document
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("memstore: uncloneable document: %v", err))
	}
	if out == nil {
		out = crud.Document{}
	}
	return out
}

// matches applies a flat AND-of-equality filter.
func matches(doc crud.Document, filter crud.Filter) bool {
	for k, want := range filter {
		have, ok := doc[k]
		if !ok || !equalValue(have, want) {
			return false
		}
	}
	return true
}

func equalValue(have, want any) bool {
	if hf, ok := toFloat(have); ok {
		if wf, ok := toFloat(want); ok {
			return hf == wf
		}
		return false
	}
	return fmt.Sprint(have) == fmt.Sprint(want)
}

func lessValue(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af < bf
		}
	}
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
