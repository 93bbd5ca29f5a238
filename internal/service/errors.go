package service

import (
	"errors"

	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// mapRepoErr turns repository sentinels into domain errors for resource.
func mapRepoErr(err error, resource string, details map[string]any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", details)
	case errors.Is(err, repository.ErrStatusChanged):
		return apperrors.NewConflict(resource+" status changed concurrently", details)
	default:
		return apperrors.MapError(err)
	}
}
