package service

import (
	"context"
	"testing"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCameraService(t *testing.T) {
	svc := NewCameraService(newFakeCameraRepo())
	ctx := context.Background()

	camera, err := svc.CreateCamera(ctx, &CreateCameraRequest{Name: "Leica Q2", Brand: "Leica", DailyRate: 45})
	require.NoError(t, err)
	assert.True(t, camera.Active)

	inactive := false
	rate := 50.0
	updated, err := svc.UpdateCamera(ctx, camera.ID, &UpdateCameraRequest{Active: &inactive, DailyRate: &rate})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, 50.0, updated.DailyRate)
	assert.Equal(t, "Leica Q2", updated.Name)

	all, err := svc.GetAllCameras(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = svc.GetCamera(ctx, 99)
	assert.ErrorIs(t, err, entity.ErrCameraNotFound)
}
