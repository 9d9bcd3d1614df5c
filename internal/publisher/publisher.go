// Package publisher streams per-address verdicts to Redis Streams so
// downstream automation (airdrop tooling, dashboards) can react to checker
// runs without parsing CLI output.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"github.com/kofi-labs/staker-checker/internal/checker"
)

// Publisher publishes address verdicts to a Redis stream topic.
type Publisher struct {
	pub         message.Publisher
	redisClient redis.UniversalClient
	topic       string
}

// New creates a Publisher on top of an existing Redis client.
func New(redisClient redis.UniversalClient, topic string) (*Publisher, error) {
	logger := watermill.NewSlogLogger(nil)

	pub, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		pub:         pub,
		redisClient: redisClient,
		topic:       topic,
	}, nil
}

// verdictEnvelope is the wire shape of one published verdict.
type verdictEnvelope struct {
	RunID     string                `json:"run_id"`
	EventType string                `json:"event_type"`
	Threshold int64                 `json:"threshold"`
	Result    checker.AddressResult `json:"result"`
	CheckedAt time.Time             `json:"checked_at"`
}

// PublishResult publishes one address verdict.
func (p *Publisher) PublishResult(ctx context.Context, runID, eventType string, threshold int64, res checker.AddressResult) error {
	start := time.Now()

	payload, err := json.Marshal(verdictEnvelope{
		RunID:     runID,
		EventType: eventType,
		Threshold: threshold,
		Result:    res,
		CheckedAt: start.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}

	msgUUID := watermill.NewUUID()
	msg := message.NewMessage(msgUUID, payload)
	msg.Metadata.Set("run_id", runID)

	err = p.pub.Publish(p.topic, msg)
	duration := time.Since(start)

	if err != nil {
		slog.Error("verdict publish failed",
			"address", res.Address,
			"run_id", runID,
			"msg_uuid", msgUUID,
			"duration_ms", duration.Milliseconds(),
			"err", err,
		)
		return err
	}

	slog.Info("verdict published",
		"address", res.Address,
		"meets_criteria", res.MeetsCriteria,
		"run_id", runID,
		"msg_uuid", msgUUID,
		"duration_ms", duration.Milliseconds(),
	)
	return nil
}

// Close closes the underlying stream publisher.
func (p *Publisher) Close() error {
	return p.pub.Close()
}

// QueueLength returns the number of messages in the verdict stream.
func (p *Publisher) QueueLength(ctx context.Context) (int64, error) {
	return p.redisClient.XLen(ctx, p.topic).Result()
}

// Topic returns the Redis stream topic name.
func (p *Publisher) Topic() string {
	return p.topic
}
