package dberr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/classroom-backend/internal/pkg/errors"
)

const pgUniqueViolation = "23505"

// Translate maps driver errors onto the package sentinels. Unknown errors pass through.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Join(pkgerrors.ErrNotFound, err)
	}
	if IsUniqueViolation(err) {
		return errors.Join(pkgerrors.ErrConflict, err)
	}
	return err
}

func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
