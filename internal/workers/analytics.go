package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	redisclient "github.com/yungbote/activitylog-backend/internal/clients/redis"
	types "github.com/yungbote/activitylog-backend/internal/domain"
	"github.com/yungbote/activitylog-backend/internal/pkg/apperr"
	"github.com/yungbote/activitylog-backend/internal/platform/logger"
	"github.com/yungbote/activitylog-backend/internal/services"
)

// AnalyticsWorker drains the upstream Redis stream into the durable
// log. Ack policy: appended batches and permanently-rejected payloads
// (validation, referential) are acked; store failures stay pending so
// the group redelivers them. Re-appending is safe because a failed
// append has no observable effect.
type AnalyticsWorker struct {
	log       *logger.Logger
	stream    redisclient.AnalyticsStream
	activity  services.ActivityService
	consumers int
	readCount int64
	block     time.Duration
}

func NewAnalyticsWorker(log *logger.Logger, stream redisclient.AnalyticsStream, activity services.ActivityService, consumers int) *AnalyticsWorker {
	if consumers <= 0 {
		consumers = 2
	}
	return &AnalyticsWorker{
		log:       log.With("worker", "AnalyticsWorker"),
		stream:    stream,
		activity:  activity,
		consumers: consumers,
		readCount: 64,
		block:     5 * time.Second,
	}
}

// Run blocks until ctx is canceled.
func (w *AnalyticsWorker) Run(ctx context.Context) error {
	if err := w.stream.EnsureGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.consumers; i++ {
		consumer := fmt.Sprintf("analytics_worker_%d", i+1)
		g.Go(func() error {
			return w.consume(gctx, consumer)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *AnalyticsWorker) consume(ctx context.Context, consumer string) error {
	log := w.log.With("consumer", consumer)
	log.Info("consumer started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msgs, err := w.stream.ReadGroup(ctx, consumer, w.readCount, w.block)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("stream read failed, backing off", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
			continue
		}
		for _, msg := range msgs {
			w.handle(ctx, log, msg)
		}
	}
}

func (w *AnalyticsWorker) handle(ctx context.Context, log *logger.Logger, msg redisclient.StreamMessage) {
	var in types.EventInput
	if err := json.Unmarshal(msg.Body, &in); err != nil {
		log.Warn("undecodable stream payload, dropping", "entry_id", msg.ID, "error", err)
		_ = w.stream.Ack(ctx, msg.ID)
		return
	}

	_, err := w.activity.Ingest(ctx, nil, []types.EventInput{in})
	switch {
	case err == nil:
		_ = w.stream.Ack(ctx, msg.ID)
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrReferential):
		// poison message: rejection is permanent, retrying cannot help
		log.Warn("rejected stream event, dropping", "entry_id", msg.ID, "error", err)
		_ = w.stream.Ack(ctx, msg.ID)
	default:
		// store failure: leave pending for redelivery
		log.Error("append from stream failed, leaving pending", "entry_id", msg.ID, "error", err)
	}
}
