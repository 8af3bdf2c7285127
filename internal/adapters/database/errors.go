package database

import (
	"errors"
	"fmt"

	"instafeed/internal/core/apperr"

	"gorm.io/gorm"
)

// translate maps gorm and driver errors onto the apperr taxonomy.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrConflict, err)
	default:
		return apperr.Store(op, err)
	}
}
