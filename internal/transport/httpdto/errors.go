package httpdto

import (
	"errors"
	"net/http"

	teamchat_errors "teamchat/pkg/errors"
)

// ErrorStatus maps a core error to an HTTP status and a stable error code.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, teamchat_errors.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, teamchat_errors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, teamchat_errors.ErrLastAdmin):
		return http.StatusConflict, "LAST_ADMIN"
	case errors.Is(err, teamchat_errors.ErrImmutableMembership):
		return http.StatusConflict, "IMMUTABLE_MEMBERSHIP"
	case errors.Is(err, teamchat_errors.ErrAlreadyExists):
		return http.StatusConflict, "ALREADY_EXISTS"
	case errors.Is(err, teamchat_errors.ErrInvalidMembership):
		return http.StatusUnprocessableEntity, "INVALID_MEMBERSHIP"
	case errors.Is(err, teamchat_errors.ErrInvalidInput):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, teamchat_errors.ErrUnauthorized):
		return http.StatusUnauthorized, CodeUnauthorized
	case errors.Is(err, teamchat_errors.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, teamchat_errors.ErrStoreUnavailable), errors.Is(err, teamchat_errors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "STORE_UNAVAILABLE"
	case errors.Is(err, teamchat_errors.ErrQueueOverflow):
		return http.StatusServiceUnavailable, "QUEUE_OVERFLOW"
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
