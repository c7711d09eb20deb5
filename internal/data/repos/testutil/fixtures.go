package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/activitylog-backend/internal/domain"
)

var fixtureSeq int

// SeedUser inserts an account row the way the external account
// subsystem would, so referential checks have something to point at.
func SeedUser(tb testing.TB, tx *gorm.DB) *types.User {
	tb.Helper()
	fixtureSeq++
	u := &types.User{
		Email:     fmt.Sprintf("fixture-%d-%d@example.com", time.Now().UnixNano(), fixtureSeq),
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}
