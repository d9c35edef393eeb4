package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/searchgate/internal/db"
)

var errUnexpectedReply = errors.New("unexpected reply shape")

// XAdd appends an entry with an auto-generated id.
func (s *Store) XAdd(ctx context.Context, stream string, fields map[string]string) (string, error) {
	cmd := s.b().Xadd().Key(stream).Id("*").FieldValue()
	for k, v := range fields {
		cmd = cmd.FieldValue(k, v)
	}
	id, err := s.do(ctx, cmd.Build()).ToString()
	if err != nil {
		return "", &db.Error{Op: db.OpXAdd, Err: err}
	}
	return id, nil
}

// XGroupCreate creates a consumer group reading from the start of the
// stream, creating the stream if needed.
func (s *Store) XGroupCreate(ctx context.Context, stream, group string) error {
	cmd := s.b().XgroupCreate().Key(stream).Group(group).Id("0").Mkstream().Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "BUSYGROUP") {
			return nil
		}
		return &db.Error{Op: db.OpXGroup, Err: err}
	}
	return nil
}

// XReadGroup reads new messages for the consumer.
func (s *Store) XReadGroup(
	ctx context.Context, stream, group, consumer string, count int64, block time.Duration,
) ([]db.StreamMessage, error) {
	cmd := s.b().Xreadgroup().
		Group(group, consumer).
		Count(count).
		Block(block.Milliseconds()).
		Streams().
		Key(stream).
		Id(">").
		Build()

	res, err := s.do(ctx, cmd).AsXRead()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, &db.Error{Op: db.OpXReadGroup, Err: err}
	}

	entries := res[stream]
	out := make([]db.StreamMessage, 0, len(entries))
	for _, e := range entries {
		out = append(out, db.StreamMessage{ID: e.ID, Fields: e.FieldValues})
	}
	return out, nil
}

// XAutoClaim transfers entries pending longer than minIdle to consumer,
// scanning from start. It returns the cursor for the next scan; "0-0" means
// the pending list was exhausted.
func (s *Store) XAutoClaim(
	ctx context.Context, stream, group, consumer string, minIdle time.Duration, start string, count int64,
) (string, []db.StreamMessage, error) {
	cmd := s.b().Xautoclaim().
		Key(stream).
		Group(group).
		Consumer(consumer).
		MinIdleTime(strconv.FormatInt(minIdle.Milliseconds(), 10)).
		Start(start).
		Count(count).
		Build()

	res, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return "", nil, &db.Error{Op: db.OpXAutoClaim, Err: err}
	}
	if len(res) < 2 {
		return "", nil, &db.Error{Op: db.OpXAutoClaim, Err: errUnexpectedReply}
	}
	next, err := res[0].ToString()
	if err != nil {
		return "", nil, &db.Error{Op: db.OpXAutoClaim, Err: err}
	}
	entries, err := res[1].AsXRange()
	if err != nil {
		return "", nil, &db.Error{Op: db.OpXAutoClaim, Err: err}
	}

	out := make([]db.StreamMessage, 0, len(entries))
	for _, e := range entries {
		// Entries deleted while pending come back without fields.
		if e.FieldValues == nil {
			continue
		}
		out = append(out, db.StreamMessage{ID: e.ID, Fields: e.FieldValues})
	}
	return next, out, nil
}

// XAck acknowledges processed messages.
func (s *Store) XAck(ctx context.Context, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	cmd := s.b().Xack().Key(stream).Group(group).Id(ids...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpXAck, Err: err}
	}
	return nil
}
