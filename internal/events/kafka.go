package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kgo "github.com/segmentio/kafka-go"
)

// KafkaPublisher writes events asynchronously; delivery errors only reach the log.
type KafkaPublisher struct {
	w   *kgo.Writer
	log *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *slog.Logger) *KafkaPublisher {
	log = log.With("component", "kafka_publisher", "topic", topic)
	w := &kgo.Writer{
		Addr:                   kgo.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kgo.Hash{},
		RequiredAcks:           kgo.RequireOne,
		Async:                  true,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
		Completion: func(messages []kgo.Message, err error) {
			if err != nil {
				log.Error("kafka delivery failed", "messages", len(messages), "error", err)
			}
		},
	}
	return &KafkaPublisher{w: w, log: log}
}

// Publish keys by post id so events for one post stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, ev CommentCreated) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.w.WriteMessages(ctx, kgo.Message{Key: []byte(ev.PostID), Value: b, Time: time.Now()})
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// messageReader is the part of *kafka.Reader the consumer needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kgo.Message, error)
	CommitMessages(ctx context.Context, msgs ...kgo.Message) error
	Close() error
}

// KafkaConsumer feeds events from a consumer group into a Handler. Offsets are committed after
// the handler returns whether or not it failed: there are no redeliveries.
type KafkaConsumer struct {
	reader messageReader
	handle Handler
	log    *slog.Logger
	// backoff is the pause after a failed fetch.
	backoff time.Duration
}

func NewKafkaConsumer(brokers []string, groupID, topic string, handle Handler, log *slog.Logger) *KafkaConsumer {
	reader := kgo.NewReader(kgo.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
	return newKafkaConsumer(reader, handle, log.With("component", "kafka_consumer", "topic", topic, "group", groupID))
}

func newKafkaConsumer(reader messageReader, handle Handler, log *slog.Logger) *KafkaConsumer {
	return &KafkaConsumer{reader: reader, handle: handle, log: log, backoff: time.Second}
}

// Run blocks until ctx is cancelled.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	defer func() {
		_ = c.reader.Close()
	}()

	c.log.Info("consumer started")
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("consumer shutting down")
				return nil
			}
			c.log.Warn("fetch failed", "error", err)
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
			}
			continue
		}
		c.process(ctx, m)
	}
}

// process decodes and handles one message, then commits it no matter how handling went.
func (c *KafkaConsumer) process(ctx context.Context, m kgo.Message) {
	var ev CommentCreated
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		c.log.Warn("skipping undecodable event", "offset", m.Offset, "error", err)
	} else if err := c.handle(ctx, ev); err != nil {
		c.log.Warn("event handler failed", "comment_id", ev.CommentID, "error", err)
	}

	if err := c.reader.CommitMessages(ctx, m); err != nil {
		c.log.Warn("commit failed", "offset", m.Offset, "error", err)
	}
}
