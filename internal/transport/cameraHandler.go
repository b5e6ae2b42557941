package transport

import (
	"net/http"

	"github.com/ds124wfegd/camera-rental/internal/service"
	"github.com/gin-gonic/gin"
)

type CameraHandler struct {
	cameraService service.CameraService
}

func NewCameraHandler(cameraService service.CameraService) *CameraHandler {
	return &CameraHandler{cameraService: cameraService}
}

func (h *CameraHandler) CreateCamera(c *gin.Context) {
	var req service.CreateCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	camera, err := h.cameraService.CreateCamera(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, "Camera created", camera)
}

func (h *CameraHandler) GetCamera(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	camera, err := h.cameraService.GetCamera(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Camera retrieved", camera)
}

func (h *CameraHandler) GetAllCameras(c *gin.Context) {
	cameras, err := h.cameraService.GetAllCameras(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Cameras retrieved", cameras)
}

func (h *CameraHandler) UpdateCamera(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	var req service.UpdateCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	camera, err := h.cameraService.UpdateCamera(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Camera updated", camera)
}
