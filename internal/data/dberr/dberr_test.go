package dberr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/classroom-backend/internal/pkg/errors"
)

func TestTranslate(t *testing.T) {
	if Translate(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	if err := Translate(gorm.ErrRecordNotFound); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("record not found: got=%v", err)
	}
	if err := Translate(gorm.ErrDuplicatedKey); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("duplicated key: got=%v", err)
	}
	pg := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if err := Translate(pg); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("pg unique violation: got=%v", err)
	}
	other := errors.New("boom")
	if err := Translate(other); err != other {
		t.Fatalf("unknown errors pass through: got=%v", err)
	}
}
