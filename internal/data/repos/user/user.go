package user

import (
	"context"

	"gorm.io/gorm"

	types "github.com/yungbote/activitylog-backend/internal/domain"
	"github.com/yungbote/activitylog-backend/internal/pkg/apperr"
	"github.com/yungbote/activitylog-backend/internal/platform/logger"
)

// UserRepo reads the externally-owned users table. This engine never
// creates, updates, or deletes a user.
type UserRepo interface {
	Exists(ctx context.Context, tx *gorm.DB, userID int64) (bool, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []int64) ([]*types.User, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Exists(ctx context.Context, tx *gorm.DB, userID int64) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID <= 0 {
		return false, nil
	}
	var count int64
	if err := t.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Count(&count).Error; err != nil {
		return false, apperr.MapStore("user exists", err)
	}
	return count > 0, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []int64) ([]*types.User, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := t.WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, apperr.MapStore("get users", err)
	}
	return results, nil
}
