package user

import (
	"context"
	"testing"

	"github.com/yungbote/activitylog-backend/internal/data/repos/testutil"
)

func TestUserRepo_Exists(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	ctx := context.Background()

	u := testutil.SeedUser(t, tx)

	exists, err := repo.Exists(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatal("Exists: expected true for seeded user")
	}

	exists, err = repo.Exists(ctx, tx, 999999)
	if err != nil {
		t.Fatalf("Exists (missing): %v", err)
	}
	if exists {
		t.Fatal("Exists (missing): expected false")
	}

	exists, err = repo.Exists(ctx, tx, 0)
	if err != nil {
		t.Fatalf("Exists (zero): %v", err)
	}
	if exists {
		t.Fatal("Exists (zero): expected false")
	}
}

func TestUserRepo_GetByIDs(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	ctx := context.Background()

	u := testutil.SeedUser(t, tx)

	got, err := repo.GetByIDs(ctx, tx, []int64{u.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 1 || got[0].ID != u.ID {
		t.Fatalf("GetByIDs: unexpected result: %+v", got)
	}

	got, err = repo.GetByIDs(ctx, tx, nil)
	if err != nil {
		t.Fatalf("GetByIDs (empty): %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("GetByIDs (empty): expected no rows, got %+v", got)
	}
}
