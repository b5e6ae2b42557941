package transport

import (
	"time"

	"github.com/ds124wfegd/camera-rental/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Camera    *CameraHandler
	Booking   *BookingHandler
	Rental    *RentalHandler
	Calendar  *CalendarHandler
	Potential *PotentialBookingHandler
	Queue     *QueueHandler
	Health    *HealthHandler
}

func InitRoutes(h *Handlers, allowedOrigins []string, timeout time.Duration) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(timeout))

	// API routes
	api := router.Group("/api/v1")
	{
		cameras := api.Group("/cameras")
		{
			cameras.POST("", h.Camera.CreateCamera)
			cameras.GET("", h.Camera.GetAllCameras)
			cameras.GET("/:id", h.Camera.GetCamera)
			cameras.PUT("/:id", h.Camera.UpdateCamera)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.Booking.CreateBooking)
			bookings.POST("/conflicts/check", h.Booking.CheckConflict)
			bookings.GET("/:id", h.Booking.GetBooking)
			bookings.PUT("/:id/dates", h.Booking.UpdateDates)
			bookings.DELETE("/:id", h.Booking.DeleteBooking)
			bookings.GET("/:id/lifecycle", h.Booking.GetLifecycle)
			bookings.POST("/:id/actions/:action", h.Booking.ApplyAction)
		}

		// Admin routes
		admin := api.Group("/admin")
		{
			admin.GET("/rentals", h.Rental.ListRentals)
			admin.GET("/rentals/counts", h.Rental.CountFilters)
			admin.GET("/rentals/needs-action", h.Rental.NeedsAction)

			admin.GET("/calendar/:camera_id", h.Calendar.GetMonth)

			admin.POST("/potential-bookings", h.Potential.Create)
			admin.GET("/potential-bookings", h.Potential.GetAll)
			admin.POST("/potential-bookings/conflicts", h.Potential.CheckConflicts)
			admin.GET("/potential-bookings/:id", h.Potential.Get)
			admin.DELETE("/potential-bookings/:id", h.Potential.Delete)

			admin.GET("/queue/stats", h.Queue.Stats)
			admin.GET("/queue/dlq", h.Queue.ListDLQ)
			admin.POST("/queue/dlq/:id/requeue", h.Queue.RequeueDLQ)
			admin.DELETE("/queue/dlq/:id", h.Queue.DeleteDLQ)
		}
	}

	// Health check
	router.GET("/health", h.Health.Health)

	return router
}
