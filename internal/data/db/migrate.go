package db

import (
	types "github.com/yungbote/activitylog-backend/internal/domain"
	"gorm.io/gorm"
)

// AutoMigrateAll creates the log table with its four secondary indexes,
// plus the users table for deployments where the account subsystem
// shares the database. Index DDL rides on the model tags, so index
// maintenance is always part of the insert transaction.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.User{},
		&types.ActivityEvent{},
	)
}
