package activity

import (
	"context"

	"gorm.io/gorm"

	types "github.com/yungbote/activitylog-backend/internal/domain"
	"github.com/yungbote/activitylog-backend/internal/pkg/apperr"
	"github.com/yungbote/activitylog-backend/internal/platform/logger"
)

// ActivityEventRepo is the append-only log plus its four secondary
// access paths. Appends are inserts only; nothing here updates or
// deletes a row. Identity assignment rides on the table's sequence, so
// ids are strictly increasing across concurrent appenders without any
// application-level lock.
type ActivityEventRepo interface {
	Append(ctx context.Context, tx *gorm.DB, events []*types.ActivityEvent) ([]*types.ActivityEvent, error)
	GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.ActivityEvent, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []int64) ([]*types.ActivityEvent, error)
	ScanRange(ctx context.Context, tx *gorm.DB, fromID, toID int64, limit int) ([]*types.ActivityEvent, error)
	LookupIDs(ctx context.Context, tx *gorm.DB, dim types.Dimension, value any, cursor string, limit int) ([]int64, string, error)
}

type activityEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityEventRepo(db *gorm.DB, baseLog *logger.Logger) ActivityEventRepo {
	return &activityEventRepo{db: db, log: baseLog.With("repo", "ActivityEventRepo")}
}

func (r *activityEventRepo) Append(ctx context.Context, tx *gorm.DB, events []*types.ActivityEvent) ([]*types.ActivityEvent, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(events) == 0 {
		return []*types.ActivityEvent{}, nil
	}
	if err := t.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, apperr.MapStore("append events", err)
	}
	return events, nil
}

func (r *activityEventRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.ActivityEvent, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id <= 0 {
		return nil, nil
	}
	var row types.ActivityEvent
	res := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&row)
	if res.Error != nil {
		return nil, apperr.MapStore("get event", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *activityEventRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []int64) ([]*types.ActivityEvent, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.ActivityEvent
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, apperr.MapStore("get events", err)
	}
	return out, nil
}

func (r *activityEventRepo) ScanRange(ctx context.Context, tx *gorm.DB, fromID, toID int64, limit int) ([]*types.ActivityEvent, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	limit = clampLimit(limit)

	q := t.WithContext(ctx).Where("id >= ?", fromID)
	if toID > 0 {
		q = q.Where("id <= ?", toID)
	}

	var out []*types.ActivityEvent
	if err := q.Order("id ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, apperr.MapStore("scan events", err)
	}
	return out, nil
}

// LookupIDs walks one index in ascending id order with keyset
// pagination. An empty next cursor means the result set is exhausted.
func (r *activityEventRepo) LookupIDs(ctx context.Context, tx *gorm.DB, dim types.Dimension, value any, cursor string, limit int) ([]int64, string, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	col := dim.Column()
	if col == "" {
		return nil, "", apperr.Validationf("unknown dimension %q", string(dim))
	}
	limit = clampLimit(limit)

	q := t.WithContext(ctx).
		Model(&types.ActivityEvent{}).
		Where(col+" = ?", value)
	if cursor != "" {
		afterID, err := DecodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		q = q.Where("id > ?", afterID)
	}

	// one extra row decides whether another page exists
	var ids []int64
	if err := q.Order("id ASC").Limit(limit + 1).Pluck("id", &ids).Error; err != nil {
		return nil, "", apperr.MapStore("lookup ids", err)
	}
	next := ""
	if len(ids) > limit {
		ids = ids[:limit]
		next = EncodeCursor(ids[len(ids)-1])
	}
	return ids, next, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
