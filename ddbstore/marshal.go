package ddbstore

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/strata/crud"
)

// marshalItem converts a document to DynamoDB attributes, forcing the given
// id as the key attribute.
func marshalItem(doc crud.Document, id string) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	item["id"] = &types.AttributeValueMemberS{Value: id}
	return item, nil
}

// unmarshalItem converts DynamoDB attributes back to a flat document. The
// key attribute is already the normalized string id.
func unmarshalItem(item map[string]types.AttributeValue) (crud.Document, error) {
	var doc crud.Document
	if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return doc, nil
}

// idKey builds the primary key for an id.
func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

// idOnly reports whether a filter is a pure identity lookup.
func idOnly(filter crud.Filter) (string, bool) {
	if len(filter) != 1 {
		return "", false
	}
	id, ok := filter["id"].(string)
	return id, ok
}

// applyFilter attaches an AND-of-equality filter expression to a scan.
func applyFilter(input *dynamodb.ScanInput, filter crud.Filter) error {
	if len(filter) == 0 {
		return nil
	}

	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	clauses := make([]string, 0, len(filter))
	i := 0
	for k, v := range filter {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal filter field %q: %w", k, err)
		}
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		names[nameKey] = k
		values[valueKey] = av
		clauses = append(clauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}

	expr := clauses[0]
	for _, clause := range clauses[1:] {
		expr += " AND " + clause
	}

	input.FilterExpression = &expr
	input.ExpressionAttributeNames = names
	input.ExpressionAttributeValues = values
	return nil
}

// isConditionFailure reports whether an error is a failed condition check
// (item missing on update/delete).
func isConditionFailure(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

// lessAttr orders attribute values for client-side sorting: numbers
// numerically, everything else by string form, missing values first.
func lessAttr(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af < bf
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
