package ddbstore

import (
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/strata/crud"
)

func TestMarshalItem_ForcesID(t *testing.T) {
	item, err := marshalItem(crud.Document{"name": "Jane", "id": "stale"}, "fresh-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, ok := item["id"].(*types.AttributeValueMemberS)
	if !ok || id.Value != "fresh-id" {
		t.Errorf("id attribute = %#v, want S fresh-id", item["id"])
	}
	name, ok := item["name"].(*types.AttributeValueMemberS)
	if !ok || name.Value != "Jane" {
		t.Errorf("name attribute = %#v, want S Jane", item["name"])
	}
}

func TestUnmarshalItem_RoundTrip(t *testing.T) {
	item, err := marshalItem(crud.Document{"name": "Jane", "age": 25, "active": true}, "the-id")
	if err != nil {
		t.Fatalf("marshalItem: %v", err)
	}

	doc, err := unmarshalItem(item)
	if err != nil {
		t.Fatalf("unmarshalItem: %v", err)
	}
	if doc["id"] != "the-id" {
		t.Errorf("id = %v, want the-id", doc["id"])
	}
	if doc["name"] != "Jane" {
		t.Errorf("name = %v", doc["name"])
	}
	if doc["active"] != true {
		t.Errorf("active = %v", doc["active"])
	}
	if doc["age"].(float64) != 25 {
		t.Errorf("age = %v", doc["age"])
	}
}

func TestIDOnly(t *testing.T) {
	tests := []struct {
		name   string
		filter crud.Filter
		wantID string
		wantOK bool
	}{
		{"single id", crud.Filter{"id": "x"}, "x", true},
		{"id with extra field", crud.Filter{"id": "x", "name": "y"}, "", false},
		{"non-string id", crud.Filter{"id": 42}, "", false},
		{"no id", crud.Filter{"name": "y"}, "", false},
		{"empty", crud.Filter{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := idOnly(tt.filter)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("idOnly = %q, %t; want %q, %t", id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestApplyFilter(t *testing.T) {
	t.Run("empty filter leaves scan untouched", func(t *testing.T) {
		input := &dynamodb.ScanInput{}
		if err := applyFilter(input, crud.Filter{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if input.FilterExpression != nil {
			t.Errorf("expected no filter expression, got %q", *input.FilterExpression)
		}
	})

	t.Run("single equality", func(t *testing.T) {
		input := &dynamodb.ScanInput{}
		if err := applyFilter(input, crud.Filter{"name": "Jane"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := *input.FilterExpression; got != "#f0 = :v0" {
			t.Errorf("expression = %q", got)
		}
		if input.ExpressionAttributeNames["#f0"] != "name" {
			t.Errorf("names = %v", input.ExpressionAttributeNames)
		}
		v, ok := input.ExpressionAttributeValues[":v0"].(*types.AttributeValueMemberS)
		if !ok || v.Value != "Jane" {
			t.Errorf("values = %v", input.ExpressionAttributeValues)
		}
	})

	t.Run("multiple fields joined with AND", func(t *testing.T) {
		input := &dynamodb.ScanInput{}
		if err := applyFilter(input, crud.Filter{"name": "Jane", "age": 25}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expr := *input.FilterExpression
		if strings.Count(expr, " AND ") != 1 {
			t.Errorf("expression = %q, want exactly one AND", expr)
		}
		if len(input.ExpressionAttributeNames) != 2 || len(input.ExpressionAttributeValues) != 2 {
			t.Errorf("names = %v, values = %v", input.ExpressionAttributeNames, input.ExpressionAttributeValues)
		}
	})
}

func TestLessAttr(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"numeric ascending", 1, float64(2), true},
		{"numeric descending", float64(3), 2, false},
		{"numeric equal", 5, 5.0, false},
		{"string ascending", "a", "b", true},
		{"string descending", "b", "a", false},
		{"nil before value", nil, "a", true},
		{"value not before nil", "a", nil, false},
		{"both nil", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lessAttr(tt.a, tt.b); got != tt.want {
				t.Errorf("lessAttr(%v, %v) = %t, want %t", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIsConditionFailure(t *testing.T) {
	if !isConditionFailure(&types.ConditionalCheckFailedException{}) {
		t.Error("expected true for a conditional check failure")
	}
	if isConditionFailure(nil) {
		t.Error("expected false for nil")
	}
	if isConditionFailure(crud.ErrNoDocument) {
		t.Error("expected false for an unrelated error")
	}
}
