package mongostore

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jacentio/strata/crud"
)

func TestNormalize(t *testing.T) {
	oid := primitive.NewObjectID()

	t.Run("object id becomes hex string", func(t *testing.T) {
		doc := normalize(bson.M{"_id": oid, "name": "Jane"})
		if doc["id"] != oid.Hex() {
			t.Errorf("id = %v, want %s", doc["id"], oid.Hex())
		}
		if _, ok := doc["_id"]; ok {
			t.Error("native key survived normalization")
		}
		if doc["name"] != "Jane" {
			t.Errorf("name = %v", doc["name"])
		}
	})

	t.Run("string id passes through", func(t *testing.T) {
		doc := normalize(bson.M{"_id": "custom-id"})
		if doc["id"] != "custom-id" {
			t.Errorf("id = %v, want custom-id", doc["id"])
		}
	})

	t.Run("no native id", func(t *testing.T) {
		doc := normalize(bson.M{"name": "Jane"})
		if _, ok := doc["id"]; ok {
			t.Errorf("unexpected id: %v", doc["id"])
		}
	})
}

func TestIDFilter(t *testing.T) {
	col := &collection{}
	oid := primitive.NewObjectID()

	filter, err := col.IDFilter(oid.Hex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := filter["_id"].(primitive.ObjectID)
	if !ok || got != oid {
		t.Errorf("filter = %v, want _id %s", filter, oid.Hex())
	}

	if _, err := col.IDFilter("not-a-hex-id"); err == nil {
		t.Error("expected an error for a malformed id")
	}
}

func TestFormatID(t *testing.T) {
	col := &collection{}
	oid := primitive.NewObjectID()

	if got := col.FormatID(oid); got != oid.Hex() {
		t.Errorf("FormatID(ObjectID) = %q, want %q", got, oid.Hex())
	}
	if got := col.FormatID("plain"); got != "plain" {
		t.Errorf("FormatID(string) = %q", got)
	}
	if got := col.FormatID(7); got != "7" {
		t.Errorf("FormatID(int) = %q", got)
	}
}

func TestToBSON(t *testing.T) {
	if got := toBSON(nil); got == nil || len(got) != 0 {
		t.Errorf("toBSON(nil) = %v, want empty", got)
	}
	got := toBSON(crud.Filter{"name": "Jane"})
	if got["name"] != "Jane" {
		t.Errorf("toBSON lost fields: %v", got)
	}
}
