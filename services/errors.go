package services

import (
	"errors"

	"saferoute-api/apperrors"
	"saferoute-api/repository"
)

// translateRepoError turns storage sentinels into coded errors. Errors that
// already carry a code pass through unchanged.
func translateRepoError(err error, notFoundMsg string) error {
	var coded *apperrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &coded):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.Wrap(err, apperrors.CodeNotFound, notFoundMsg)
	case errors.Is(err, repository.ErrStaleStatus):
		return apperrors.Wrap(err, apperrors.CodeInvalidStateTransition, "hazard status changed concurrently")
	case errors.Is(err, repository.ErrTokenUsed):
		return apperrors.Wrap(err, apperrors.CodeAlreadyUsed, "token has already been used")
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Wrap(err, apperrors.CodeConflict, "record already exists")
	default:
		return apperrors.Wrap(err, apperrors.CodeInternal, "storage failure")
	}
}
