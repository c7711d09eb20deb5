package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/activitylog-backend/internal/data/repos"
	types "github.com/yungbote/activitylog-backend/internal/domain"
	"github.com/yungbote/activitylog-backend/internal/domain/activity"
	"github.com/yungbote/activitylog-backend/internal/pkg/apperr"
	"github.com/yungbote/activitylog-backend/internal/platform/logger"
)

const maxIngestBatch = 200

// QueryFilter names exactly one indexed dimension plus pagination.
// Conjunctions over several dimensions are not supported by the engine;
// callers intersect client-side.
type QueryFilter struct {
	EventType *string
	SessionID *string
	DeviceID  *string
	UserID    *int64
	Cursor    string
	Limit     int
}

type ActivityService interface {
	// Ingest validates and durably appends a batch. The batch commits as
	// one atomic unit: guard checks, row inserts, and index maintenance
	// either all become visible or none do.
	Ingest(ctx context.Context, tx *gorm.DB, inputs []types.EventInput) ([]*types.ActivityEvent, error)
	Get(ctx context.Context, tx *gorm.DB, id int64) (*types.ActivityEvent, error)
	Query(ctx context.Context, tx *gorm.DB, f QueryFilter) ([]*types.ActivityEvent, string, error)
	Scan(ctx context.Context, tx *gorm.DB, fromID, toID int64, limit int) ([]*types.ActivityEvent, error)
}

type activityService struct {
	db     *gorm.DB
	log    *logger.Logger
	events repos.ActivityEventRepo
	users  repos.UserRepo
}

func NewActivityService(db *gorm.DB, baseLog *logger.Logger, events repos.ActivityEventRepo, users repos.UserRepo) ActivityService {
	return &activityService{
		db:     db,
		log:    baseLog.With("service", "ActivityService"),
		events: events,
		users:  users,
	}
}

func (s *activityService) Ingest(ctx context.Context, tx *gorm.DB, inputs []types.EventInput) ([]*types.ActivityEvent, error) {
	if len(inputs) == 0 {
		return []*types.ActivityEvent{}, nil
	}
	if len(inputs) > maxIngestBatch {
		return nil, apperr.Validationf("too many events (max %d)", maxIngestBatch)
	}

	// validate everything before touching the store
	rows := make([]*types.ActivityEvent, 0, len(inputs))
	for i := range inputs {
		row, err := activity.Validate(inputs[i])
		if err != nil {
			return nil, apperr.Validationf("event %d: %w", i, err)
		}
		rows = append(rows, row)
	}

	run := func(t *gorm.DB) error {
		if err := s.guardUsers(ctx, t, rows); err != nil {
			return err
		}
		_, err := s.events.Append(ctx, t, rows)
		return err
	}

	var err error
	if tx != nil {
		err = run(tx)
	} else {
		err = s.db.WithContext(ctx).Transaction(run)
	}
	if err != nil {
		s.log.Warn("event ingest failed", "error", err, "count", len(rows))
		return nil, err
	}
	return rows, nil
}

// guardUsers confirms every referenced user id inside the append
// transaction. An unconfirmable check rejects the batch rather than
// admitting an unverified reference.
func (s *activityService) guardUsers(ctx context.Context, tx *gorm.DB, rows []*types.ActivityEvent) error {
	seen := map[int64]bool{}
	for _, row := range rows {
		if row.UserID == nil {
			continue
		}
		id := *row.UserID
		if id <= 0 {
			return apperr.Referential("user_id must be positive when present")
		}
		if seen[id] {
			continue
		}
		ok, err := s.users.Exists(ctx, tx, id)
		if err != nil {
			return apperr.Referential("user existence could not be confirmed")
		}
		if !ok {
			return apperr.Referential("referenced user does not exist")
		}
		seen[id] = true
	}
	return nil
}

func (s *activityService) Get(ctx context.Context, tx *gorm.DB, id int64) (*types.ActivityEvent, error) {
	return s.events.GetByID(ctx, tx, id)
}

func (s *activityService) Query(ctx context.Context, tx *gorm.DB, f QueryFilter) ([]*types.ActivityEvent, string, error) {
	dim, value, err := f.dimension()
	if err != nil {
		return nil, "", err
	}
	ids, next, err := s.events.LookupIDs(ctx, tx, dim, value, f.Cursor, f.Limit)
	if err != nil {
		return nil, "", err
	}
	if len(ids) == 0 {
		return []*types.ActivityEvent{}, "", nil
	}
	events, err := s.events.GetByIDs(ctx, tx, ids)
	if err != nil {
		return nil, "", err
	}
	return events, next, nil
}

func (s *activityService) Scan(ctx context.Context, tx *gorm.DB, fromID, toID int64, limit int) ([]*types.ActivityEvent, error) {
	return s.events.ScanRange(ctx, tx, fromID, toID, limit)
}

func (f QueryFilter) dimension() (types.Dimension, any, error) {
	var (
		dim   types.Dimension
		value any
		n     int
	)
	if f.EventType != nil {
		dim, value, n = types.DimEventType, *f.EventType, n+1
	}
	if f.SessionID != nil {
		dim, value, n = types.DimSession, *f.SessionID, n+1
	}
	if f.DeviceID != nil {
		dim, value, n = types.DimDevice, *f.DeviceID, n+1
	}
	if f.UserID != nil {
		dim, value, n = types.DimUser, *f.UserID, n+1
	}
	switch n {
	case 1:
		return dim, value, nil
	case 0:
		return "", nil, apperr.Validation("query requires exactly one of type, session, device, user")
	default:
		return "", nil, apperr.Validation("query accepts only one dimension at a time")
	}
}
