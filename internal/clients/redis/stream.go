package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/activitylog-backend/internal/domain"
	"github.com/yungbote/activitylog-backend/internal/platform/envutil"
	"github.com/yungbote/activitylog-backend/internal/platform/logger"
)

const payloadField = "payload"

// StreamMessage is one undecoded entry from the analytics stream.
type StreamMessage struct {
	ID   string
	Body []byte
}

// AnalyticsStream is the upstream ingestion queue: producers enqueue
// event payloads with XADD, the worker consumes them through a consumer
// group so redelivery covers crashes between read and ack.
type AnalyticsStream interface {
	Publish(ctx context.Context, in types.EventInput) error
	EnsureGroup(ctx context.Context) error
	ReadGroup(ctx context.Context, consumer string, count int64, block time.Duration) ([]StreamMessage, error)
	Ack(ctx context.Context, ids ...string) error
	Close() error
}

type analyticsStream struct {
	log    *logger.Logger
	rdb    *goredis.Client
	stream string
	group  string
}

func NewAnalyticsStream(log *logger.Logger) (AnalyticsStream, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &analyticsStream{
		log:    log.With("client", "AnalyticsStream"),
		rdb:    rdb,
		stream: envutil.String("REDIS_STREAM", "analytics_stream"),
		group:  envutil.String("REDIS_GROUP", "analytics_group"),
	}, nil
}

func (s *analyticsStream) Publish(ctx context.Context, in types.EventInput) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return s.rdb.XAdd(ctx, &goredis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{payloadField: string(raw)},
	}).Err()
}

func (s *analyticsStream) EnsureGroup(ctx context.Context) error {
	err := s.rdb.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && strings.Contains(err.Error(), "BUSYGROUP") {
		return nil // group already exists
	}
	return err
}

func (s *analyticsStream) ReadGroup(ctx context.Context, consumer string, count int64, block time.Duration) ([]StreamMessage, error) {
	res, err := s.rdb.XReadGroup(ctx, &goredis.XReadGroupArgs{
		Group:    s.group,
		Consumer: consumer,
		Streams:  []string{s.stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var out []StreamMessage
	for _, stream := range res {
		for _, msg := range stream.Messages {
			raw, ok := msg.Values[payloadField].(string)
			if !ok {
				s.log.Warn("stream entry missing payload, acking", "entry_id", msg.ID)
				_ = s.Ack(ctx, msg.ID)
				continue
			}
			out = append(out, StreamMessage{ID: msg.ID, Body: []byte(raw)})
		}
	}
	return out, nil
}

func (s *analyticsStream) Ack(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.rdb.XAck(ctx, s.stream, s.group, ids...).Err()
}

func (s *analyticsStream) Close() error {
	return s.rdb.Close()
}
