package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/strata/crud"
)

// CascadeHandler processes DynamoDB stream events for the ddbstore backend
// and propagates soft deletes to registered child collections. Deploy it as
// a Lambda handler on the streams of parent tables; children flipped here
// trigger their own stream events, cascading further without walking the
// tree in one invocation.
type CascadeHandler struct {
	db          crud.Database
	registry    *crud.Registry
	tablePrefix string
	logger      *slog.Logger
}

// NewCascadeHandler creates a stream handler. tablePrefix must match the
// ddbstore.Config used for the tables; a nil logger falls back to
// slog.Default().
func NewCascadeHandler(db crud.Database, registry *crud.Registry, tablePrefix string, logger *slog.Logger) *CascadeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CascadeHandler{
		db:          db,
		registry:    registry,
		tablePrefix: tablePrefix,
		logger:      logger,
	}
}

// HandleSoftDeletes is the Lambda entry point.
func (h *CascadeHandler) HandleSoftDeletes(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process stream record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord cascades a single soft-delete transition.
func (h *CascadeHandler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	// Only MODIFY events where the deletion marker was newly set.
	if record.EventName != "MODIFY" {
		return nil
	}
	if getBoolAttr(record.Change.OldImage, "is_deleted") || !getBoolAttr(record.Change.NewImage, "is_deleted") {
		return nil
	}

	id := getStringAttr(record.Change.NewImage, "id")
	if id == "" {
		return nil
	}

	collection, err := h.collectionOf(record.EventSourceArn)
	if err != nil {
		return err
	}
	if !h.registry.HasChildren(collection) {
		return nil
	}

	h.logger.Info("cascading stream soft delete",
		"collection", collection,
		"id", id,
	)

	deleter := crud.NewCascadeDeleter(collection, h.registry, h.logger)
	return deleter.OnDelete(ctx, h.db, id)
}

// collectionOf extracts the collection name from a stream ARN
// (arn:aws:dynamodb:region:account:table/NAME/stream/LABEL).
func (h *CascadeHandler) collectionOf(arn string) (string, error) {
	parts := strings.Split(arn, "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("unexpected stream arn %q", arn)
	}
	table := parts[1]
	if h.tablePrefix != "" {
		if !strings.HasPrefix(table, h.tablePrefix) {
			return "", fmt.Errorf("table %q does not carry prefix %q", table, h.tablePrefix)
		}
		table = strings.TrimPrefix(table, h.tablePrefix)
	}
	return table, nil
}

// getStringAttr extracts a string attribute from a stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getBoolAttr extracts a boolean attribute from a stream image, defaulting
// to false when absent.
func getBoolAttr(image map[string]events.DynamoDBAttributeValue, key string) bool {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeBoolean {
		return v.Boolean()
	}
	return false
}
