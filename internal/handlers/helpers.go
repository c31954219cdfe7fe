package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"deeptech/internal/services"
)

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// failDomain — мапит доменные ошибки на HTTP. Всё незнакомое — 500 без деталей,
// ошибки хранилища наружу не утекают.
func failDomain(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrAdminKeyInvalid),
		errors.Is(err, services.ErrAdminEmailPolicy),
		errors.Is(err, services.ErrCodeExpired),
		errors.Is(err, services.ErrCodeMismatch),
		errors.Is(err, services.ErrTooManyAttempts),
		errors.Is(err, services.ErrEmailMismatch),
		errors.Is(err, services.ErrPasswordMismatch),
		errors.Is(err, services.ErrSamePassword),
		errors.Is(err, services.ErrPasswordAlreadySet),
		errors.Is(err, services.ErrBadTransition),
		errors.Is(err, services.ErrResetTokenInvalid):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrCodeNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrUnverified),
		errors.Is(err, services.ErrPasswordNotSet),
		errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrResendThrottled):
		fail(c, http.StatusTooManyRequests, "too many requests, try later")
	default:
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

func accountIDFromCtx(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get("account_id")
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
