// Package ddbstore adapts DynamoDB to the crud driver contract.
//
// Each collection maps to one table keyed by a string "id" attribute;
// identities are uuids assigned on insert. Equality filters become scan
// filter expressions, so listing large collections pays scan costs — this
// driver targets the same small-dataset sweet spot as the rest of the
// layer.
package ddbstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/strata/crud"
	"github.com/jacentio/strata/internal/ident"
)

// Config holds configuration for the DynamoDB driver.
type Config struct {
	// TablePrefix is prepended to collection names to form table names.
	// Default: none.
	TablePrefix string
}

// DB wraps a DynamoDB client as a crud.Database.
type DB struct {
	client *dynamodb.Client
	config Config
}

// New wraps an existing DynamoDB client.
func New(client *dynamodb.Client, config Config) *DB {
	return &DB{client: client, config: config}
}

// NewFromConfig builds a client from the default AWS configuration chain.
func NewFromConfig(ctx context.Context, config Config) (*DB, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New(dynamodb.NewFromConfig(awsCfg), config), nil
}

// Collection returns a handle addressing the backing table of a collection.
func (d *DB) Collection(name string) crud.Collection {
	return &collection{
		client: d.client,
		table:  d.config.TablePrefix + name,
	}
}

type collection struct {
	client *dynamodb.Client
	table  string
}

func (c *collection) FindOne(ctx context.Context, filter crud.Filter) (crud.Document, error) {
	if id, ok := idOnly(filter); ok {
		result, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(c.table),
			Key:       idKey(id),
		})
		if err != nil {
			return nil, err
		}
		if result.Item == nil {
			return nil, crud.ErrNoDocument
		}
		return unmarshalItem(result.Item)
	}

	docs, err := c.scan(ctx, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, crud.ErrNoDocument
	}
	return docs[0], nil
}

func (c *collection) Find(_ context.Context, filter crud.Filter) crud.Cursor {
	return &cursor{col: c, filter: filter}
}

func (c *collection) CountDocuments(ctx context.Context, filter crud.Filter) (int64, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(c.table),
		Select:    types.SelectCount,
	}
	if err := applyFilter(input, filter); err != nil {
		return 0, err
	}

	var total int64
	paginator := dynamodb.NewScanPaginator(c.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		total += int64(page.Count)
	}
	return total, nil
}

func (c *collection) InsertOne(ctx context.Context, doc crud.Document) (crud.InsertOneResult, error) {
	id := ident.New()
	item, err := marshalItem(doc, id)
	if err != nil {
		return crud.InsertOneResult{}, err
	}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return crud.InsertOneResult{}, err
	}
	return crud.InsertOneResult{InsertedID: id}, nil
}

// InsertMany writes documents through BatchWriteItem in chunks of 25 (the
// DynamoDB batch ceiling). Batches carry no conditions and no atomicity;
// leftover unprocessed items surface as an error after the assigned ids
// are lost, matching the store's own partial-failure behavior.
func (c *collection) InsertMany(ctx context.Context, docs []crud.Document) (crud.InsertManyResult, error) {
	const batchSize = 25

	ids := make([]any, 0, len(docs))
	requests := make([]types.WriteRequest, 0, len(docs))
	for _, doc := range docs {
		id := ident.New()
		item, err := marshalItem(doc, id)
		if err != nil {
			return crud.InsertManyResult{}, err
		}
		ids = append(ids, id)
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	for start := 0; start < len(requests); start += batchSize {
		end := start + batchSize
		if end > len(requests) {
			end = len(requests)
		}

		result, err := c.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				c.table: requests[start:end],
			},
		})
		if err != nil {
			return crud.InsertManyResult{}, err
		}
		if unprocessed := len(result.UnprocessedItems[c.table]); unprocessed > 0 {
			return crud.InsertManyResult{}, fmt.Errorf("ddbstore: %d items unprocessed in bulk insert to %q", unprocessed, c.table)
		}
	}

	return crud.InsertManyResult{InsertedIDs: ids}, nil
}

func (c *collection) UpdateOne(ctx context.Context, filter crud.Filter, set crud.Document) (crud.UpdateResult, error) {
	id, err := c.resolveID(ctx, filter)
	if err != nil {
		return crud.UpdateResult{}, err
	}
	if id == "" {
		return crud.UpdateResult{Acknowledged: true}, nil
	}

	// Build the SET expression from the patch attributes.
	var clauses []string
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	i := 0
	for k, v := range set {
		if k == "id" {
			continue
		}
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return crud.UpdateResult{}, fmt.Errorf("marshal field %q: %w", k, err)
		}
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		names[nameKey] = k
		values[valueKey] = av
		clauses = append(clauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}
	if len(clauses) == 0 {
		return crud.UpdateResult{Acknowledged: true, MatchedCount: 1}, nil
	}

	_, err = c.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(c.table),
		Key:                       idKey(id),
		UpdateExpression:          aws.String("SET " + strings.Join(clauses, ", ")),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		if isConditionFailure(err) {
			return crud.UpdateResult{Acknowledged: true}, nil
		}
		return crud.UpdateResult{}, err
	}

	return crud.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  1,
		ModifiedCount: 1,
	}, nil
}

func (c *collection) DeleteOne(ctx context.Context, filter crud.Filter) (crud.DeleteResult, error) {
	id, err := c.resolveID(ctx, filter)
	if err != nil {
		return crud.DeleteResult{}, err
	}
	if id == "" {
		return crud.DeleteResult{Acknowledged: true}, nil
	}

	_, err = c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(c.table),
		Key:                 idKey(id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		if isConditionFailure(err) {
			return crud.DeleteResult{Acknowledged: true}, nil
		}
		return crud.DeleteResult{}, err
	}
	return crud.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
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

// resolveID maps a filter to the key of the first matching item. Empty
// string means nothing matched.
func (c *collection) resolveID(ctx context.Context, filter crud.Filter) (string, error) {
	if id, ok := idOnly(filter); ok {
		return id, nil
	}
	docs, err := c.scan(ctx, filter, 1)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", nil
	}
	id, _ := docs[0]["id"].(string)
	return id, nil
}

// scan drains matching items through the paginator, stopping once max
// items are collected (0 = no cap).
func (c *collection) scan(ctx context.Context, filter crud.Filter, max int64) ([]crud.Document, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(c.table),
	}
	if err := applyFilter(input, filter); err != nil {
		return nil, err
	}

	var docs []crud.Document
	paginator := dynamodb.NewScanPaginator(c.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			doc, err := unmarshalItem(raw)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
			if max > 0 && int64(len(docs)) >= max {
				return docs, nil
			}
		}
	}
	return docs, nil
}

// cursor is a lazy scan. DynamoDB cannot order scan results server-side,
// so sorting happens after the drain, before the limit is applied.
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

func (cur *cursor) All(ctx context.Context) ([]crud.Document, error) {
	// With a sort the whole result set must be drained first; without one
	// the scan can stop at the limit.
	max := cur.limit
	if cur.sortBy != "" {
		max = 0
	}

	docs, err := cur.col.scan(ctx, cur.filter, max)
	if err != nil {
		return nil, err
	}

	if cur.sortBy != "" {
		field := cur.sortBy
		sort.SliceStable(docs, func(i, j int) bool {
			return lessAttr(docs[i][field], docs[j][field])
		})
	}
	if cur.limit > 0 && int64(len(docs)) > cur.limit {
		docs = docs[:cur.limit]
	}
	return docs, nil
}
