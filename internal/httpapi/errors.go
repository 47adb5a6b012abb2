package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"messmate/internal/account"
	"messmate/internal/announcement"
	"messmate/internal/attendance"
	"messmate/internal/expense"
	"messmate/internal/feedback"
	"messmate/internal/imagestore"
	"messmate/internal/meal"
	"messmate/internal/menu"
)

var (
	errBadRequest = errors.New("bad request")
	errForbidden  = errors.New("forbidden")
)

type errorClass struct {
	status int
	errs   []error
}

var classes = []errorClass{
	{http.StatusBadRequest, []error{
		errBadRequest,
		meal.ErrInvalidMeal,
		expense.ErrInvalidEntry, expense.ErrInvalidPeriod,
		menu.ErrInvalidDay, menu.ErrInvalidFood,
		account.ErrInvalidInput, account.ErrInvalidOTP, account.ErrOTPExpired,
		announcement.ErrInvalidInput,
		feedback.ErrInvalidInput, feedback.ErrInvalidStatus,
	}},
	{http.StatusUnauthorized, []error{account.ErrInvalidCredentials}},
	{http.StatusForbidden, []error{
		errForbidden,
		attendance.ErrWindowClosed,
		account.ErrNotAllowed, account.ErrNotVerified,
	}},
	{http.StatusNotFound, []error{
		account.ErrNotFound, menu.ErrNotFound, announcement.ErrNotFound, feedback.ErrNotFound,
	}},
	{http.StatusConflict, []error{account.ErrAlreadyExists}},
	{http.StatusServiceUnavailable, []error{imagestore.ErrDisabled}},
}

// statusOf maps a service error to its HTTP status.
func statusOf(err error) int {
	for _, cl := range classes {
		for _, target := range cl.errs {
			if errors.Is(err, target) {
				return cl.status
			}
		}
	}
	return http.StatusInternalServerError
}

// fail writes {"error": ...}. Internal errors are logged and replaced by a generic message.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(msg string) error {
	return &wrapped{msg: msg, err: errBadRequest}
}

type wrapped struct {
	msg string
	err error
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.err }
