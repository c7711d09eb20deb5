package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/activitylog-backend/internal/data/repos/activity"
	"github.com/yungbote/activitylog-backend/internal/data/repos/user"
	"github.com/yungbote/activitylog-backend/internal/platform/logger"
)

type ActivityEventRepo = activity.ActivityEventRepo
type UserRepo = user.UserRepo

func NewActivityEventRepo(db *gorm.DB, baseLog *logger.Logger) ActivityEventRepo {
	return activity.NewActivityEventRepo(db, baseLog)
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}
