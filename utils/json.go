package utils

import (
	"errors"
	"net/http"

	"CourseForge/internal/repo"
	"CourseForge/internal/service"

	"github.com/gin-gonic/gin"
)

// Success writes a success JSON response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"msg":  "ok",
		"data": data,
	})
}

// Fail writes an error JSON response. This is the only place error kinds
// turn into HTTP statuses; when the failed operation already mutated
// remote state the response says so, so operators know to reconcile.
func Fail(c *gin.Context, err error) {
	body := gin.H{
		"code": -1,
		"msg":  err.Error(),
	}
	if service.StateChanged(err) {
		body["state_changed"] = true
	}
	c.JSON(statusFor(err), body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingParameter),
		errors.Is(err, service.ErrMalformedKey):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repo.ErrLockBusy):
		return http.StatusConflict
	case errors.Is(err, service.ErrFailedToSave),
		errors.Is(err, service.ErrStoreUnavailable):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
