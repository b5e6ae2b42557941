package transport

import (
	"net/http"
	"strconv"

	"github.com/ds124wfegd/camera-rental/internal/service"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingService service.BookingService
	rentalService  service.RentalService
}

func NewBookingHandler(bookingService service.BookingService, rentalService service.RentalService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		rentalService:  rentalService,
	}
}

// CreateBooking always answers 201 for a valid request; overlaps come back as warnings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.bookingService.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, "Booking created", res)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Booking retrieved", booking)
}

// UpdateDates runs PUT /bookings/:id/dates. ?force=true overrides a conflict.
func (h *BookingHandler) UpdateDates(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	var req service.UpdateDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	req.Force, _ = strconv.ParseBool(c.DefaultQuery("force", "false"))

	res, err := h.bookingService.UpdateDates(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Booking dates updated", res)
}

func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	if err := h.bookingService.DeleteBooking(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Booking deleted", nil)
}

func (h *BookingHandler) CheckConflict(c *gin.Context) {
	var req service.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.bookingService.CheckConflict(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Conflict check completed", summary)
}

func (h *BookingHandler) GetLifecycle(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	view, err := h.rentalService.GetLifecycle(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Lifecycle retrieved", view)
}

// ApplyAction runs POST /bookings/:id/actions/:action. ?force=true overrides a conflict.
func (h *BookingHandler) ApplyAction(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))

	view, err := h.rentalService.ApplyAction(c.Request.Context(), id, c.Param("action"), force)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Action applied", view)
}
