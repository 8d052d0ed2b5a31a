// Package stream provides change-event consumers for the crud lifecycle
// hooks: a Kafka publisher for notification-style side effects and a
// DynamoDB Streams handler cascading soft deletes for the ddbstore backend.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	kafka "github.com/segmentio/kafka-go"

	"github.com/jacentio/strata/crud"
)

// Operations carried by change events.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// Event is the wire form of a change notification.
type Event struct {
	Op         string    `json:"op"`
	Collection string    `json:"collection"`
	IDs        []string  `json:"ids"`
	At         time.Time `json:"at"`
}

// MessageWriter is the subset of kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher implements crud.Hooks by publishing one change event per
// mutating call. Events for the same collection share a message key, so
// they land on one partition in order.
//
// Publish failures propagate through the hook, after the store write has
// committed; consumers of the topic must tolerate gaps or the caller must
// retry out of band.
type Publisher struct {
	collection string
	writer     MessageWriter
	logger     *slog.Logger
	now        func() time.Time
}

// NewPublisher builds a change-event publisher for one collection. A nil
// logger falls back to slog.Default().
func NewPublisher(collection string, writer MessageWriter, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		collection: collection,
		writer:     writer,
		logger:     logger,
		now:        time.Now,
	}
}

// NewWriter builds a kafka.Writer suitable for the publisher.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.LeastBytes{},
	}
}

func (p *Publisher) OnCreate(ctx context.Context, _ crud.Database, ids []string) error {
	return p.publish(ctx, OpCreated, ids)
}

func (p *Publisher) OnUpdate(ctx context.Context, _ crud.Database, id string) error {
	return p.publish(ctx, OpUpdated, []string{id})
}

func (p *Publisher) OnDelete(ctx context.Context, _ crud.Database, id string) error {
	return p.publish(ctx, OpDeleted, []string{id})
}

func (p *Publisher) publish(ctx context.Context, op string, ids []string) error {
	event := Event{
		Op:         op,
		Collection: p.collection,
		IDs:        ids,
		At:         p.now().UTC(),
	}

	serialized, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(p.collection),
		Value: serialized,
	})
	if err != nil {
		return fmt.Errorf("publish %s event for %q: %w", op, p.collection, err)
	}

	p.logger.Debug("published change event",
		"op", op,
		"collection", p.collection,
		"ids", ids,
	)
	return nil
}
