package service

import (
	"context"
	"fmt"

	repository "github.com/ds124wfegd/camera-rental/internal/database/postgres"
	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/sirupsen/logrus"
)

type cameraService struct {
	cameraRepo repository.CameraRepository
}

func NewCameraService(cameraRepo repository.CameraRepository) CameraService {
	return &cameraService{cameraRepo: cameraRepo}
}

func (s *cameraService) CreateCamera(ctx context.Context, req *CreateCameraRequest) (*entity.Camera, error) {
	camera := &entity.Camera{
		Name:      req.Name,
		Brand:     req.Brand,
		DailyRate: req.DailyRate,
		Active:    true,
	}

	if err := s.cameraRepo.Create(ctx, camera); err != nil {
		return nil, fmt.Errorf("failed to create camera: %w", err)
	}

	logrus.WithFields(logrus.Fields{"camera_id": camera.ID, "name": camera.Name}).Info("Camera created")
	return camera, nil
}

func (s *cameraService) GetCamera(ctx context.Context, id int64) (*entity.Camera, error) {
	return s.cameraRepo.GetByID(ctx, id)
}

func (s *cameraService) GetAllCameras(ctx context.Context) ([]*entity.Camera, error) {
	return s.cameraRepo.GetAll(ctx)
}

func (s *cameraService) UpdateCamera(ctx context.Context, id int64, req *UpdateCameraRequest) (*entity.Camera, error) {
	camera, err := s.cameraRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		camera.Name = *req.Name
	}
	if req.Brand != nil {
		camera.Brand = *req.Brand
	}
	if req.DailyRate != nil {
		camera.DailyRate = *req.DailyRate
	}
	if req.Active != nil {
		camera.Active = *req.Active
	}

	if err := s.cameraRepo.Update(ctx, camera); err != nil {
		return nil, fmt.Errorf("failed to update camera: %w", err)
	}
	return camera, nil
}
