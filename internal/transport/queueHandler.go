package transport

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ds124wfegd/camera-rental/pkg/queue"
	"github.com/gin-gonic/gin"
)

// QueueAdmin exposes the reminder queue for inspection.
type QueueAdmin interface {
	Stats(ctx context.Context) (*queue.QueueStats, error)
	DLQ() queue.DLQHandler
}

type QueueHandler struct {
	queue QueueAdmin
}

// NewQueueHandler accepts a nil queue; every endpoint then answers 503.
func NewQueueHandler(q QueueAdmin) *QueueHandler {
	return &QueueHandler{queue: q}
}

func (h *QueueHandler) available(c *gin.Context) bool {
	if h.queue == nil {
		fail(c, http.StatusServiceUnavailable, "task queue is disabled")
		return false
	}
	return true
}

func (h *QueueHandler) Stats(c *gin.Context) {
	if !h.available(c) {
		return
	}

	stats, err := h.queue.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Queue stats retrieved", stats)
}

func (h *QueueHandler) ListDLQ(c *gin.Context) {
	if !h.available(c) {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		fail(c, http.StatusBadRequest, "invalid limit")
		return
	}

	failed, err := h.queue.DLQ().GetFailedTasks(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Failed tasks retrieved", failed)
}

func (h *QueueHandler) RequeueDLQ(c *gin.Context) {
	if !h.available(c) {
		return
	}

	if err := h.queue.DLQ().RequeueFailedTask(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Task requeued", nil)
}

func (h *QueueHandler) DeleteDLQ(c *gin.Context) {
	if !h.available(c) {
		return
	}

	if err := h.queue.DLQ().DeleteFailedTask(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Task deleted", nil)
}
