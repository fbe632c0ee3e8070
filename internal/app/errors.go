package app

import (
	"errors"
	"fmt"
	"net/http"

	"dgcreview/api/internal/lock"
	"dgcreview/api/internal/review"
	"dgcreview/api/internal/store"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

var errInvalidJSON = domainError(http.StatusBadRequest, "INVALID_BODY", "Couldn't parse JSON.", nil)

// mapError turns service errors into the status and short message shown to
// the submitter.
func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	switch {
	case errors.Is(err, review.ErrDuplicateReview):
		return http.StatusConflict, "DUPLICATE_REVIEW", "This review already exists.", nil
	case errors.Is(err, review.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, lock.ErrNotAcquired), errors.Is(err, lock.ErrLeaseLost):
		return http.StatusServiceUnavailable, "BUSY", "The review list is busy, try again.", nil
	case errors.Is(err, store.ErrContentMalformed):
		return http.StatusInternalServerError, "CONTENT_MALFORMED", "Couldn't parse file content.", nil
	case errors.Is(err, store.ErrContentUnavailable):
		return http.StatusInternalServerError, "CONTENT_UNAVAILABLE", "Couldn't read file.", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "There was an IO error.", nil
}
