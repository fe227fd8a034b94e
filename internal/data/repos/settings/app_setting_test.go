package settings

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"github.com/yungbote/classroom-backend/internal/data/repos/testutil"
	"github.com/yungbote/classroom-backend/internal/domain/classroom"
)

func TestAppSettingRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	repo := NewAppSettingRepo(db, testutil.Logger(t))

	got, err := repo.Get(ctx, tx, "UNSET_KEY")
	if err != nil || got != nil {
		t.Fatalf("Get (missing): err=%v got=%+v", err, got)
	}

	if err := repo.Put(ctx, tx, "CLASSROOM_MODE", datatypes.JSON(`{"enabled":true}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := repo.Put(ctx, tx, "CLASSROOM_MODE", datatypes.JSON(`{"enabled":false}`)); err != nil {
		t.Fatalf("Put (overwrite): %v", err)
	}
	got, err = repo.Get(ctx, tx, "CLASSROOM_MODE")
	if err != nil || got == nil {
		t.Fatalf("Get: err=%v got=%+v", err, got)
	}
	if enabled, ok := classroom.DecodeBag(got.Value)["enabled"].(bool); !ok || enabled {
		t.Fatalf("Get: value=%s", string(got.Value))
	}
}
