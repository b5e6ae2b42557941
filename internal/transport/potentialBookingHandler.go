package transport

import (
	"net/http"

	"github.com/ds124wfegd/camera-rental/internal/service"
	"github.com/gin-gonic/gin"
)

type PotentialBookingHandler struct {
	potentialService service.PotentialBookingService
}

func NewPotentialBookingHandler(potentialService service.PotentialBookingService) *PotentialBookingHandler {
	return &PotentialBookingHandler{potentialService: potentialService}
}

func (h *PotentialBookingHandler) Create(c *gin.Context) {
	var req service.CreatePotentialBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	pb, err := h.potentialService.CreatePotentialBooking(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, "Potential booking created", pb)
}

func (h *PotentialBookingHandler) Get(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	pb, err := h.potentialService.GetPotentialBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Potential booking retrieved", pb)
}

func (h *PotentialBookingHandler) GetAll(c *gin.Context) {
	cameraID, valid := optionalInt64(c, "camera_id")
	if !valid {
		return
	}

	items, err := h.potentialService.GetAllPotentialBookings(c.Request.Context(), cameraID)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Potential bookings retrieved", items)
}

func (h *PotentialBookingHandler) Delete(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	if err := h.potentialService.DeletePotentialBooking(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Potential booking deleted", nil)
}

func (h *PotentialBookingHandler) CheckConflicts(c *gin.Context) {
	results, err := h.potentialService.CheckPotentialConflicts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Potential booking conflicts checked", results)
}
