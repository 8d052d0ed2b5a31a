// Package mongostore adapts a MongoDB database to the crud driver
// contract.
//
// Identities are ObjectIDs: IDFilter parses the hex form and documents come
// back with "_id" normalized to a hex string under "id". Everything else is
// a thin pass-through to the official driver; store-originated failures
// propagate unmodified.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/jacentio/strata/crud"
)

// DB wraps a mongo.Database as a crud.Database.
type DB struct {
	db *mongo.Database
}

// New wraps an already-connected database handle.
func New(db *mongo.Database) *DB {
	return &DB{db: db}
}

// Connect dials a MongoDB deployment, verifies connectivity and returns the
// wrapped database plus a disconnect function.
func Connect(ctx context.Context, uri, database string) (*DB, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %q: %w", uri, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping %q: %w", uri, err)
	}
	return New(client.Database(database)), client.Disconnect, nil
}

// Collection returns the named collection.
func (d *DB) Collection(name string) crud.Collection {
	return &collection{col: d.db.Collection(name)}
}

type collection struct {
	col *mongo.Collection
}

func (c *collection) FindOne(ctx context.Context, filter crud.Filter) (crud.Document, error) {
	var doc bson.M
	err := c.col.FindOne(ctx, toBSON(filter)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, crud.ErrNoDocument
	}
	if err != nil {
		return nil, err
	}
	return normalize(doc), nil
}

func (c *collection) Find(_ context.Context, filter crud.Filter) crud.Cursor {
	return &cursor{col: c.col, filter: filter}
}

func (c *collection) CountDocuments(ctx context.Context, filter crud.Filter) (int64, error) {
	return c.col.CountDocuments(ctx, toBSON(filter))
}

func (c *collection) InsertOne(ctx context.Context, doc crud.Document) (crud.InsertOneResult, error) {
	result, err := c.col.InsertOne(ctx, bson.M(doc))
	if err != nil {
		return crud.InsertOneResult{}, err
	}
	return crud.InsertOneResult{InsertedID: result.InsertedID}, nil
}

func (c *collection) InsertMany(ctx context.Context, docs []crud.Document) (crud.InsertManyResult, error) {
	payload := make([]any, 0, len(docs))
	for _, doc := range docs {
		payload = append(payload, bson.M(doc))
	}
	result, err := c.col.InsertMany(ctx, payload)
	if err != nil {
		return crud.InsertManyResult{}, err
	}
	return crud.InsertManyResult{InsertedIDs: result.InsertedIDs}, nil
}

func (c *collection) UpdateOne(ctx context.Context, filter crud.Filter, set crud.Document) (crud.UpdateResult, error) {
	result, err := c.col.UpdateOne(ctx, toBSON(filter), bson.M{"$set": bson.M(set)})
	if err != nil {
		return crud.UpdateResult{}, err
	}
	return crud.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  result.MatchedCount,
		ModifiedCount: result.ModifiedCount,
	}, nil
}

func (c *collection) DeleteOne(ctx context.Context, filter crud.Filter) (crud.DeleteResult, error) {
	result, err := c.col.DeleteOne(ctx, toBSON(filter))
	if err != nil {
		return crud.DeleteResult{}, err
	}
	return crud.DeleteResult{
		Acknowledged: true,
		DeletedCount: result.DeletedCount,
	}, nil
}

// IDFilter parses the hex form of an ObjectID into a native identity
// filter.
func (c *collection) IDFilter(id string) (crud.Filter, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	return crud.Filter{"_id": oid}, nil
}

// FormatID renders a driver-assigned identity as its hex string. Records
// written with string ids pass through unchanged.
func (c *collection) FormatID(id any) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// cursor is a lazy find; the query runs when All drains it.
type cursor struct {
	col    *mongo.Collection
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

func (cur *cursor) All(ctx context.Context) ([]crud.Document, error) {
	opts := options.Find()
	if cur.sortBy != "" {
		opts.SetSort(bson.D{{Key: cur.sortBy, Value: 1}})
	}
	if cur.limit > 0 {
		opts.SetLimit(cur.limit)
	}

	mc, err := cur.col.Find(ctx, toBSON(cur.filter), opts)
	if err != nil {
		return nil, err
	}
	defer mc.Close(ctx)

	var raw []bson.M
	if err := mc.All(ctx, &raw); err != nil {
		return nil, err
	}

	out := make([]crud.Document, 0, len(raw))
	for _, doc := range raw {
		out = append(out, normalize(doc))
	}
	return out, nil
}

func toBSON(filter crud.Filter) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return bson.M(filter)
}

// normalize moves the native _id into the "id" key as a string. Either the
// native ObjectID or an already-string id is accepted; unknown extra fields
// pass through untouched.
func normalize(doc bson.M) crud.Document {
	out := crud.Document(doc)
	if raw, ok := out["_id"]; ok {
		switch v := raw.(type) {
		case primitive.ObjectID:
			out["id"] = v.Hex()
		case string:
			out["id"] = v
		default:
			out["id"] = fmt.Sprint(v)
		}
		delete(out, "_id")
	}
	return out
}
