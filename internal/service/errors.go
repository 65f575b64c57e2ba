package service

import (
	"errors"
	"go-newsroom/internal/apperr"
	"go-newsroom/internal/data"
)

// repoErr maps repository sentinels onto the application error taxonomy.
func repoErr(err error, what string) error {
	var appErr *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, data.ErrNotFound):
		return apperr.NotFound("%s not found", what)
	case errors.Is(err, data.ErrDuplicate):
		return apperr.Conflict("%s already exists", what)
	case errors.Is(err, data.ErrReference):
		return apperr.Validation("%s references an unknown tag or category", what)
	case errors.Is(err, data.ErrCategoryInUse):
		return apperr.Conflict("category still has products attached")
	default:
		return apperr.Internal(err, "failed to access "+what)
	}
}
