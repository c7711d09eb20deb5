package user

import "time"

// User mirrors the externally-owned account entity. This engine only
// ever reads it to confirm that a referenced id was allocated; creation,
// update, and deletion happen in the account subsystem.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"column:email;uniqueIndex" json:"email"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
}

func (User) TableName() string { return "users" }
