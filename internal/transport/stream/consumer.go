// Package stream ingests documents published to a Redis stream.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchgate/internal/db"
	domdoc "github.com/kailas-cloud/searchgate/internal/domain/document"
	"github.com/kailas-cloud/searchgate/internal/usecase/indexing"
)

// Entry field names.
const (
	FieldType     = "type"
	FieldDocument = "document"
)

const (
	retryDelay = time.Second
	// claimFrom restarts a pending-list scan from the beginning.
	claimFrom = "0-0"
)

// store is the consumer interface for stream access (ISP).
type store interface {
	XGroupCreate(ctx context.Context, stream, group string) error
	XReadGroup(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]db.StreamMessage, error)
	XAck(ctx context.Context, stream, group string, ids ...string) error
	XAutoClaim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, start string, count int64) (string, []db.StreamMessage, error)
}

// Ingester indexes a batch of documents of one type.
type Ingester interface {
	IndexDocuments(ctx context.Context, docType string, docs []domdoc.Document) (indexing.Report, error)
}

// Config identifies the stream and consumer.
type Config struct {
	Stream    string
	Group     string
	Consumer  string
	BatchSize int64
	Block     time.Duration
	// ClaimIdle is how long an entry stays pending before it is claimed
	// and handled again.
	ClaimIdle time.Duration
}

// Consumer reads document entries through a consumer group. Entries are
// acknowledged only after their batch was flushed. Failed batches stay
// pending and are claimed again once idle for ClaimIdle.
type Consumer struct {
	store  store
	ingest Ingester
	cfg    Config
	logger *zap.Logger

	claimStart string
}

// New creates a stream consumer.
func New(s store, ingest Ingester, cfg Config, logger *zap.Logger) *Consumer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = indexing.DefaultBatchSize
	}
	if cfg.Block <= 0 {
		cfg.Block = 2 * time.Second
	}
	if cfg.ClaimIdle <= 0 {
		cfg.ClaimIdle = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		store:  s,
		ingest: ingest,
		cfg:    cfg,
		logger: logger.Named("stream").With(zap.String("stream", cfg.Stream), zap.String("group", cfg.Group)),

		claimStart: claimFrom,
	}
}

// Run consumes until ctx is cancelled. Each iteration first redelivers idle
// pending entries, then reads new ones.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.store.XGroupCreate(ctx, c.cfg.Stream, c.cfg.Group); err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	c.logger.Info("stream consumer started", zap.String("consumer", c.cfg.Consumer))

	for {
		if ctx.Err() != nil {
			c.logger.Info("stream consumer stopped")
			return nil
		}

		c.claimPending(ctx)

		msgs, err := c.store.XReadGroup(ctx, c.cfg.Stream, c.cfg.Group, c.cfg.Consumer, c.cfg.BatchSize, c.cfg.Block)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Error("failed to read stream", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(retryDelay):
			}
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		c.Handle(ctx, msgs)
	}
}

// claimPending takes over one page of entries left pending past ClaimIdle
// and handles them. The scan cursor carries over between calls.
func (c *Consumer) claimPending(ctx context.Context) {
	next, msgs, err := c.store.XAutoClaim(ctx,
		c.cfg.Stream, c.cfg.Group, c.cfg.Consumer, c.cfg.ClaimIdle, c.claimStart, c.cfg.BatchSize)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("failed to claim pending entries", zap.Error(err))
		}
		return
	}
	if next == "" {
		next = claimFrom
	}
	c.claimStart = next
	if len(msgs) == 0 {
		return
	}

	c.logger.Info("redelivering pending entries", zap.Int("count", len(msgs)))
	c.Handle(ctx, msgs)
}

type typeBatch struct {
	docs []domdoc.Document
	ids  []string
}

// Handle indexes one read of entries grouped by type and returns the number
// of acknowledged entries.
func (c *Consumer) Handle(ctx context.Context, msgs []db.StreamMessage) int {
	batchID := uuid.NewString()
	logger := c.logger.With(zap.String("batch_id", batchID))

	var poison []string
	order := make([]string, 0, 1)
	batches := make(map[string]*typeBatch)

	for _, m := range msgs {
		docType, doc, err := decode(m)
		if err != nil {
			logger.Warn("dropping undecodable entry", zap.String("id", m.ID), zap.Error(err))
			poison = append(poison, m.ID)
			continue
		}
		b, ok := batches[docType]
		if !ok {
			b = &typeBatch{}
			batches[docType] = b
			order = append(order, docType)
		}
		b.docs = append(b.docs, doc)
		b.ids = append(b.ids, m.ID)
	}

	acked := c.ack(ctx, logger, poison)
	for _, t := range order {
		b := batches[t]
		report, err := c.ingest.IndexDocuments(ctx, t, b.docs)
		if err != nil {
			logger.Error("failed to ingest stream batch",
				zap.String("type", t),
				zap.Int("count", len(b.docs)),
				zap.Error(err),
			)
			continue
		}
		logger.Info("stream batch ingested",
			zap.String("type", t),
			zap.Int("indexed", report.Indexed),
			zap.Int("failed", report.Failed),
		)
		acked += c.ack(ctx, logger, b.ids)
	}
	return acked
}

func (c *Consumer) ack(ctx context.Context, logger *zap.Logger, ids []string) int {
	if len(ids) == 0 {
		return 0
	}
	if err := c.store.XAck(ctx, c.cfg.Stream, c.cfg.Group, ids...); err != nil {
		logger.Error("failed to ack entries", zap.Int("count", len(ids)), zap.Error(err))
		return 0
	}
	return len(ids)
}

func decode(m db.StreamMessage) (string, domdoc.Document, error) {
	docType := m.Fields[FieldType]
	if docType == "" {
		docType = domdoc.DefaultType
	}
	if err := domdoc.ValidateType(docType); err != nil {
		return "", domdoc.Document{}, err
	}

	raw, ok := m.Fields[FieldDocument]
	if !ok {
		return "", domdoc.Document{}, errors.New("missing document field")
	}
	var doc domdoc.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return "", domdoc.Document{}, fmt.Errorf("decode document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return "", domdoc.Document{}, err
	}
	return docType, doc, nil
}

// Publish appends a document entry to a stream. Producers and tests use it to
// feed the consumer.
func Publish(ctx context.Context, p Publisher, stream, docType string, doc domdoc.Document) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	id, err := p.XAdd(ctx, stream, map[string]string{FieldType: docType, FieldDocument: string(body)})
	if err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}
	return id, nil
}

// Publisher appends stream entries.
type Publisher interface {
	XAdd(ctx context.Context, stream string, fields map[string]string) (string, error)
}
