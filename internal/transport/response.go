package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/pkg/calendar"
	"github.com/ds124wfegd/camera-rental/pkg/queue"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func ok(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, SuccessResponse{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Success: false, Error: message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrBookingNotFound),
		errors.Is(err, entity.ErrCameraNotFound),
		errors.Is(err, entity.ErrPotentialBookingNotFound),
		errors.Is(err, queue.ErrTaskNotInDLQ):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrBookingConflict),
		errors.Is(err, entity.ErrBookingBlocking),
		errors.Is(err, entity.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, entity.ErrInvalidDateRange),
		errors.Is(err, entity.ErrInvalidInput),
		errors.Is(err, entity.ErrInvalidFilter),
		errors.Is(err, entity.ErrUnknownAction):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError maps domain errors to status codes. Internal errors are logged and
// hidden from the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Request error")
		fail(c, status, "internal server error")
		return
	}
	fail(c, status, err.Error())
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}

// optionalInt64 reads an optional positive integer query parameter.
func optionalInt64(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		fail(c, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return v, true
}

// optionalMonth reads a YYYY-MM query parameter.
func optionalMonth(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	m, err := calendar.ParseMonth(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, fmt.Sprintf("invalid %s, expected YYYY-MM", name))
		return nil, false
	}
	return &m, true
}
