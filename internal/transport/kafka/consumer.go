// Package kafka listens for CMS change notifications and refreshes the
// catalog snapshot when one arrives.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	cataloguc "github.com/kailas-cloud/facetdex/internal/usecase/catalog"
)

// ChangeEvent is the payload published by the CMS. Every event triggers a
// full rebuild; the fields are only logged.
type ChangeEvent struct {
	Type      string `json:"type"` // entry.updated, entry.deleted, taxonomy.updated
	EntryID   string `json:"entry_id,omitempty"`
	Dimension string `json:"dimension,omitempty"`
}

// Refresher rebuilds the catalog snapshot.
type Refresher interface {
	Refresh(ctx context.Context) (cataloguc.Info, error)
}

// Config holds consumer settings.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads change notifications and triggers snapshot refreshes.
type Consumer struct {
	reader  messageReader
	refresh Refresher
	logger  *zap.Logger

	retryMin time.Duration
	retryMax time.Duration
}

// NewConsumer creates a consumer group reader for cfg.Topic.
func NewConsumer(cfg Config, refresher Refresher, logger *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    1,
		MaxBytes:    1e6,
		StartOffset: kafka.LastOffset,
	})
	return newConsumer(r, refresher, logger.With(zap.String("topic", cfg.Topic)))
}

func newConsumer(r messageReader, refresher Refresher, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		reader:   r,
		refresh:  refresher,
		logger:   logger,
		retryMin: refreshRetryMin,
		retryMax: refreshRetryMax,
	}
}

const (
	// fetchRetryDelay spaces out reads after a broker error.
	fetchRetryDelay = time.Second

	refreshRetryMin = 500 * time.Millisecond
	refreshRetryMax = 30 * time.Second
)

// Run consumes until ctx is cancelled, then closes the reader. A message is
// committed only after its refresh succeeds; a failed refresh is retried
// with backoff before the next message is read.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("change consumer started")
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Warn("close reader", zap.Error(err))
		}
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("change consumer stopping")
				return nil
			}
			c.logger.Error("fetch message", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		if !c.handle(ctx, msg) {
			c.logger.Info("change consumer stopping", zap.Int64("uncommitted_offset", msg.Offset))
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("commit message", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

// handle refreshes for msg until a refresh succeeds. It reports false when
// ctx ends first.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) bool {
	var ev ChangeEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		// Any message on the topic means the catalog moved.
		c.logger.Warn("undecodable change event", zap.Int64("offset", msg.Offset), zap.Error(err))
	}
	c.logger.Debug("change event",
		zap.String("type", ev.Type),
		zap.String("entry_id", ev.EntryID),
		zap.String("dimension", ev.Dimension),
	)

	backoff := c.retryMin
	for attempt := 1; ; attempt++ {
		info, err := c.refresh.Refresh(ctx)
		if err == nil {
			c.logger.Info("catalog refreshed from change event",
				zap.Uint64("version", info.Version),
				zap.Int("entries", info.Entries),
			)
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		c.logger.Error("refresh after change event",
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", backoff),
			zap.Error(err),
		)

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
		backoff = min(backoff*2, c.retryMax)
	}
}
