package transport

import (
	"net/http"
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/internal/rental"
	"github.com/ds124wfegd/camera-rental/internal/service"
	"github.com/gin-gonic/gin"
)

type CalendarHandler struct {
	calendarService service.CalendarService
}

func NewCalendarHandler(calendarService service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

// GetMonth serves GET /admin/calendar/:camera_id?month=YYYY-MM&select_start=&select_end=.
// The month defaults to the current one; a selection needs both ends.
func (h *CalendarHandler) GetMonth(c *gin.Context) {
	cameraID, valid := parseID(c, "camera_id")
	if !valid {
		return
	}

	month, valid := optionalMonth(c, "month")
	if !valid {
		return
	}
	if month == nil {
		now := time.Now()
		month = &now
	}

	var sel *rental.Selection
	rawStart, rawEnd := c.Query("select_start"), c.Query("select_end")
	if rawStart != "" || rawEnd != "" {
		start, err := entity.ParseDate(rawStart)
		if err != nil {
			fail(c, http.StatusBadRequest, "invalid select_start, expected YYYY-MM-DD")
			return
		}
		end, err := entity.ParseDate(rawEnd)
		if err != nil {
			fail(c, http.StatusBadRequest, "invalid select_end, expected YYYY-MM-DD")
			return
		}
		s := rental.NewSelection(start.Time, end.Time)
		sel = &s
	}

	view, err := h.calendarService.RenderMonth(c.Request.Context(), cameraID, *month, sel)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Calendar rendered", view)
}
