package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/camera-rental/config"
	repository "github.com/ds124wfegd/camera-rental/internal/database/postgres"
	cache "github.com/ds124wfegd/camera-rental/internal/database/redis"
	"github.com/ds124wfegd/camera-rental/internal/service"
	"github.com/ds124wfegd/camera-rental/internal/transport"
	"github.com/ds124wfegd/camera-rental/internal/worker"

	"github.com/ds124wfegd/camera-rental/pkg/kafka"
	"github.com/ds124wfegd/camera-rental/pkg/postgres"
	"github.com/ds124wfegd/camera-rental/pkg/queue"
	"github.com/ds124wfegd/camera-rental/pkg/rabbitmq"
	redisclient "github.com/ds124wfegd/camera-rental/pkg/redis"
	"github.com/ds124wfegd/camera-rental/pkg/scheduler"
	"github.com/ds124wfegd/camera-rental/pkg/shutdown"
	"github.com/ds124wfegd/camera-rental/pkg/telegram"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	httpServer *http.Server
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *Server {
	return &Server{httpServer: &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}}
}

func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewServer wires every dependency, starts the workers and blocks until SIGINT/SIGTERM.
func NewServer(cfg *config.Config) {
	stack := shutdown.NewStack()
	ctx, cancel := context.WithCancel(context.Background())
	workers, workerCtx := errgroup.WithContext(ctx)

	// Initialize database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	stack.Push("postgres", shutdown.PriorityStorage, func(context.Context) error { return db.Close() })

	if err := postgres.RunMigrations(ctx, db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	bookingRepo := repository.NewBookingRepository(db)
	cameraRepo := repository.NewCameraRepository(db)
	potentialRepo := repository.NewPotentialBookingRepository(db)

	checks := map[string]transport.HealthCheck{
		"postgres": func(ctx context.Context) error { return db.PingContext(ctx) },
	}

	// Redis: calendar cache and reminder queue. Both stay nil interfaces when disabled.
	var (
		redisClient   *redis.Client
		calendarCache service.CalendarCache
		redisQueue    *queue.RedisQueue
		queueAdmin    transport.QueueAdmin
	)
	if cfg.Redis.Enabled {
		redisClient, err = redisclient.Connect(ctx, &cfg.Redis)
		if err != nil {
			logrus.Errorf("Failed to connect to Redis: %v. Continuing without cache and queue...", err)
		}
	}
	if redisClient != nil {
		client := redisClient
		stack.Push("redis", shutdown.PriorityStorage, func(context.Context) error { return client.Close() })
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }

		calendarCache = cache.NewCalendarCache(client, cfg.Cache.CalendarTTL)

		queueCfg := queue.ConfigWithPrefix(cfg.Redis.QueueName, cfg.Redis.DLQName)
		redisQueue = queue.NewRedisQueue(client, queueCfg,
			queue.NewRetryManager(cfg.Redis.MaxRetry, cfg.Redis.RetryDelay), nil)
		queueAdmin = redisQueue
		logrus.Info("Redis queue initialized")
	}

	// Notification bus: RabbitMQ, or the Redis queue when the broker is disabled
	var (
		bus           *rabbitmq.RabbitMQ
		notifications service.NotificationPublisher
	)
	if cfg.RabbitMQ.Enabled {
		bus, err = rabbitmq.NewRabbitMQ(rabbitmq.Config{
			URL:       cfg.RabbitMQ.URL,
			QueueName: cfg.RabbitMQ.QueueName,
			Prefetch:  cfg.Worker.NotificationLimit,
		})
		if err != nil {
			logrus.Errorf("Failed to connect to RabbitMQ: %v", err)
		}
	}
	switch {
	case bus != nil:
		b := bus
		notifications = b
		stack.Push("rabbitmq", shutdown.PriorityBrokers, func(context.Context) error { return b.Close() })
		checks["rabbitmq"] = func(context.Context) error { return b.HealthCheck() }
	case redisQueue != nil:
		notifications = service.NewQueueAdapter(redisQueue)
		logrus.Info("Notifications routed through the Redis queue")
	default:
		logrus.Warn("No notification transport configured, notifications disabled")
	}

	// Lifecycle events
	var producer kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		producer = kafka.NewLoggingProducer(cfg.Kafka.Topic)
	}
	stack.Push("kafka", shutdown.PriorityBrokers, func(context.Context) error { return producer.Close() })

	// Telegram delivery
	var sender worker.MessageSender = worker.LogSender{}
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		sender = telegram.NewBot(cfg.Telegram.BotToken)
		logrus.Info("Telegram bot initialized")
	} else {
		logrus.Warn("Telegram bot disabled, messages will be logged")
	}

	// Initialize services
	notifier := service.NewNotifier(notifications, producer, cfg.Telegram.AdminChatID)
	cameraService := service.NewCameraService(cameraRepo)
	bookingService := service.NewBookingService(bookingRepo, cameraRepo, calendarCache, notifier)
	rentalService := service.NewRentalService(bookingRepo, cameraRepo, calendarCache, notifier)
	calendarService := service.NewCalendarService(bookingRepo, cameraRepo, calendarCache)
	potentialService := service.NewPotentialBookingService(potentialRepo, bookingRepo, cameraRepo, cfg.Booking.ConflictConcurrency)

	// Workers
	cleanupWorker := worker.NewBookingCleanupWorker(rentalService, cfg.Worker.CleanupInterval, cfg.Worker.BatchSize)
	workers.Go(func() error {
		cleanupWorker.Start(workerCtx)
		return nil
	})

	if redisQueue != nil {
		taskHandler := worker.NewTaskHandler(bookingService, sender, cfg.Telegram.AdminChatID)
		if err := redisQueue.Subscribe(workerCtx, taskHandler.HandleTask); err != nil {
			logrus.Errorf("Queue subscriber error: %v", err)
		} else {
			logrus.Info("Queue subscriber started")
		}

		reminders := scheduler.NewScheduler(bookingRepo, redisQueue, scheduler.Options{
			Interval:   cfg.Worker.ReminderInterval,
			Horizon:    cfg.Worker.ReminderHorizon,
			ShipLead:   cfg.Booking.ShipReminderLead,
			ReturnLead: cfg.Booking.ReturnReminderLead,
		})
		workers.Go(func() error {
			reminders.Start(workerCtx)
			return nil
		})
	}

	if bus != nil {
		if err := worker.NewNotificationWorker(sender).Start(workerCtx, bus); err != nil {
			logrus.Errorf("Failed to start notification worker: %v", err)
		}
	}

	stack.Push("workers", shutdown.PriorityWorkers, func(context.Context) error {
		cancel()
		err := workers.Wait()
		if redisQueue != nil {
			err = errors.Join(err, redisQueue.Close())
		}
		return err
	})

	// Setup HTTP server
	if cfg.Server.Mode == "release" || cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	handlers := &transport.Handlers{
		Camera:    transport.NewCameraHandler(cameraService),
		Booking:   transport.NewBookingHandler(bookingService, rentalService),
		Rental:    transport.NewRentalHandler(rentalService),
		Calendar:  transport.NewCalendarHandler(calendarService),
		Potential: transport.NewPotentialBookingHandler(potentialService),
		Queue:     transport.NewQueueHandler(queueAdmin),
		Health:    transport.NewHealthHandler(cfg.Server.AppVersion, checks),
	}

	srv := newHTTPServer(cfg, transport.InitRoutes(handlers, cfg.Server.AllowedOrigins, cfg.Server.Timeout))
	stack.Push("http", shutdown.PriorityHTTP, srv.Shutdown)

	serverErr := make(chan error, 1)
	go func() {
		err := srv.Run()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	logrus.WithFields(logrus.Fields{
		"addr":    cfg.GetServerAddress(),
		"version": cfg.Server.AppVersion,
	}).Info("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-quit:
		logrus.WithField("signal", sig.String()).Info("App Shutting Down")
	case err := <-serverErr:
		logrus.Errorf("error occured while running http server: %s", err.Error())
		// the listener is already gone
		stack.Remove("http")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := stack.Drain(shutdownCtx); err != nil {
		logrus.Errorf("error occured on shutting down: %s", err.Error())
	}
	logrus.Info("App Stopped")
}
