package memstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jacentio/strata/crud"
	"github.com/jacentio/strata/memstore"
)

func mustInsert(t *testing.T, col crud.Collection, doc crud.Document) string {
	t.Helper()
	result, err := col.InsertOne(context.Background(), doc)
	if err != nil {
		t.Fatalf("InsertOne: %v", err)
	}
	return col.FormatID(result.InsertedID)
}

func TestFindOne(t *testing.T) {
	ctx := context.Background()
	col := memstore.New().Collection("things")

	id := mustInsert(t, col, crud.Document{"name": "first", "rank": 2})
	mustInsert(t, col, crud.Document{"name": "second", "rank": 1})

	t.Run("by id", func(t *testing.T) {
		doc, err := col.FindOne(ctx, crud.Filter{"id": id})
		if err != nil {
			t.Fatalf("FindOne: %v", err)
		}
		if doc["name"] != "first" {
			t.Errorf("name = %v, want first", doc["name"])
		}
	})

	t.Run("by field with numeric coercion", func(t *testing.T) {
		// Stored ints come back as float64; the filter may use either.
		doc, err := col.FindOne(ctx, crud.Filter{"rank": 1})
		if err != nil {
			t.Fatalf("FindOne: %v", err)
		}
		if doc["name"] != "second" {
			t.Errorf("name = %v, want second", doc["name"])
		}
	})

	t.Run("no match", func(t *testing.T) {
		_, err := col.FindOne(ctx, crud.Filter{"name": "missing"})
		if !errors.Is(err, crud.ErrNoDocument) {
			t.Errorf("expected ErrNoDocument, got %v", err)
		}
	})

	t.Run("empty collection", func(t *testing.T) {
		other := memstore.New().Collection("empty")
		_, err := other.FindOne(ctx, crud.Filter{})
		if !errors.Is(err, crud.ErrNoDocument) {
			t.Errorf("expected ErrNoDocument, got %v", err)
		}
	})
}

func TestInsertAssignsID(t *testing.T) {
	ctx := context.Background()
	col := memstore.New().Collection("things")

	id := mustInsert(t, col, crud.Document{"name": "a"})
	if id == "" {
		t.Fatal("expected an assigned id")
	}

	doc, err := col.FindOne(ctx, crud.Filter{"id": id})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if doc["id"] != id {
		t.Errorf("stored id = %v, want %q", doc["id"], id)
	}
}

func TestFind_InsertionOrder(t *testing.T) {
	ctx := context.Background()
	col := memstore.New().Collection("things")

	for _, name := range []string{"a", "b", "c"} {
		mustInsert(t, col, crud.Document{"name": name})
	}

	docs, err := col.Find(ctx, crud.Filter{}).All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d docs, want 3", len(docs))
	}
	for i, want := range []string{"a", "b", "c"} {
		if docs[i]["name"] != want {
			t.Errorf("docs[%d] = %v, want %s", i, docs[i]["name"], want)
		}
	}
}

func TestFind_SortAndLimit(t *testing.T) {
	ctx := context.Background()
	col := memstore.New().Collection("things")

	mustInsert(t, col, crud.Document{"name": "c", "rank": 3})
	mustInsert(t, col, crud.Document{"name": "a", "rank": 1})
	mustInsert(t, col, crud.Document{"name": "b", "rank": 2})

	docs, err := col.Find(ctx, crud.Filter{}).Sort("rank").Limit(2).All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
	if docs[0]["name"] != "a" || docs[1]["name"] != "b" {
		t.Errorf("unexpected order: %v, %v", docs[0]["name"], docs[1]["name"])
	}
}

func TestFind_CursorConfigurationDoesNotAlias(t *testing.T) {
	ctx := context.Background()
	col := memstore.New().Collection("things")

	mustInsert(t, col, crud.Document{"name": "a"})
	mustInsert(t, col, crud.Document{"name": "b"})

	base := col.Find(ctx, crud.Filter{})
	limited := base.Limit(1)

	all, err := base.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("base cursor returned %d docs, want 2", len(all))
	}

	one, err := limited.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(one) != 1 {
		t.Errorf("limited cursor returned %d docs, want 1", len(one))
	}
}

func TestCountDocuments(t *testing.T) {
	ctx := context.Background()
	col := memstore.New().Collection("things")

	mustInsert(t, col, crud.Document{"kind": "x"})
	mustInsert(t, col, crud.Document{"kind": "x"})
	mustInsert(t, col, crud.Document{"kind": "y"})

	total, err := col.CountDocuments(ctx, crud.Filter{})
	if err != nil || total != 3 {
		t.Errorf("CountDocuments = %d, %v; want 3, nil", total, err)
	}

	filtered, err := col.CountDocuments(ctx, crud.Filter{"kind": "x"})
	if err != nil || filtered != 2 {
		t.Errorf("CountDocuments(kind=x) = %d, %v; want 2, nil", filtered, err)
	}
}

func TestUpdateOne_MergesPatch(t *testing.T) {
	ctx := context.Background()
	col := memstore.New().Collection("things")

	id := mustInsert(t, col, crud.Document{"name": "a", "rank": 1})

	result, err := col.UpdateOne(ctx, crud.Filter{"id": id}, crud.Document{"rank": 9})
	if err != nil {
		t.Fatalf("UpdateOne: %v", err)
	}
	if result.MatchedCount != 1 || result.ModifiedCount != 1 {
		t.Errorf("result = %+v, want matched and modified 1", result)
	}

	doc, err := col.FindOne(ctx, crud.Filter{"id": id})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if doc["rank"].(float64) != 9 {
		t.Errorf("rank = %v, want 9", doc["rank"])
	}
	if doc["name"] != "a" {
		t.Errorf("untouched field changed: %v", doc["name"])
	}
}

func TestUpdateOne_NoMatch(t *testing.T) {
	ctx := context.Background()
	col := memstore.New().Collection("things")

	result, err := col.UpdateOne(ctx, crud.Filter{"name": "missing"}, crud.Document{"rank": 1})
	if err != nil {
		t.Fatalf("UpdateOne: %v", err)
	}
	if !result.Acknowledged || result.MatchedCount != 0 {
		t.Errorf("result = %+v, want acknowledged with zero matches", result)
	}
}

func TestDeleteOne(t *testing.T) {
	ctx := context.Background()
	col := memstore.New().Collection("things")

	id := mustInsert(t, col, crud.Document{"name": "a"})
	mustInsert(t, col, crud.Document{"name": "b"})

	result, err := col.DeleteOne(ctx, crud.Filter{"id": id})
	if err != nil {
		t.Fatalf("DeleteOne: %v", err)
	}
	if result.DeletedCount != 1 {
		t.Errorf("DeletedCount = %d, want 1", result.DeletedCount)
	}

	if _, err := col.FindOne(ctx, crud.Filter{"id": id}); !errors.Is(err, crud.ErrNoDocument) {
		t.Errorf("expected ErrNoDocument after delete, got %v", err)
	}

	total, err := col.CountDocuments(ctx, crud.Filter{})
	if err != nil || total != 1 {
		t.Errorf("CountDocuments = %d, %v; want 1, nil", total, err)
	}

	again, err := col.DeleteOne(ctx, crud.Filter{"id": id})
	if err != nil {
		t.Fatalf("DeleteOne(again): %v", err)
	}
	if again.DeletedCount != 0 {
		t.Errorf("second delete removed %d docs", again.DeletedCount)
	}
}

func TestCloneIsolation(t *testing.T) {
	ctx := context.Background()
	col := memstore.New().Collection("things")

	id := mustInsert(t, col, crud.Document{"name": "a"})

	doc, err := col.FindOne(ctx, crud.Filter{"id": id})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	doc["name"] = "mutated"

	fresh, err := col.FindOne(ctx, crud.Filter{"id": id})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if fresh["name"] != "a" {
		t.Error("mutating a returned document leaked into the store")
	}
}

func TestIDFilter(t *testing.T) {
	col := memstore.New().Collection("things")

	filter, err := col.IDFilter("A3BB1898-5F7E-40CD-8F0B-6F3AD13B15B2")
	if err != nil {
		t.Fatalf("IDFilter: %v", err)
	}
	if filter["id"] != "a3bb1898-5f7e-40cd-8f0b-6f3ad13b15b2" {
		t.Errorf("expected the canonical lowercase form, got %v", filter["id"])
	}

	if _, err := col.IDFilter("not-a-uuid"); err == nil {
		t.Error("expected an error for a malformed id")
	}
}

func TestFormatID(t *testing.T) {
	col := memstore.New().Collection("things")

	if got := col.FormatID("abc"); got != "abc" {
		t.Errorf("FormatID(string) = %q", got)
	}
	if got := col.FormatID(42); got != "42" {
		t.Errorf("FormatID(int) = %q", got)
	}
}
