package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelReservationHandler "github.com/lasierra/table-reservations/internal/api/handlers/cancel_reservation"
	createReservationHandler "github.com/lasierra/table-reservations/internal/api/handlers/create_reservation"
	deleteReservationHandler "github.com/lasierra/table-reservations/internal/api/handlers/delete_reservation"
	getAvailabilityHandler "github.com/lasierra/table-reservations/internal/api/handlers/get_availability"
	getOccupancyHandler "github.com/lasierra/table-reservations/internal/api/handlers/get_occupancy"
	getReservationHandler "github.com/lasierra/table-reservations/internal/api/handlers/get_reservation"
	getTableTimelineHandler "github.com/lasierra/table-reservations/internal/api/handlers/get_table_timeline"
	healthHandler "github.com/lasierra/table-reservations/internal/api/handlers/health"
	listReservationsHandler "github.com/lasierra/table-reservations/internal/api/handlers/list_reservations"
	updateReservationHandler "github.com/lasierra/table-reservations/internal/api/handlers/update_reservation"
	"github.com/lasierra/table-reservations/internal/api/middleware"
	"github.com/lasierra/table-reservations/internal/config"
	occupancyCache "github.com/lasierra/table-reservations/internal/infra/cache/occupancy"
	"github.com/lasierra/table-reservations/internal/infra/events"
	"github.com/lasierra/table-reservations/internal/infra/storage/database"
	reservationRepo "github.com/lasierra/table-reservations/internal/infra/storage/reservation"
	"github.com/lasierra/table-reservations/internal/jobs"
	allocationService "github.com/lasierra/table-reservations/internal/service/allocation"
	availabilityService "github.com/lasierra/table-reservations/internal/service/availability"
	occupancyService "github.com/lasierra/table-reservations/internal/service/occupancy"
	reservationsService "github.com/lasierra/table-reservations/internal/service/reservations"
	createReservationUC "github.com/lasierra/table-reservations/internal/usecase/create_reservation"
	getAvailabilityUC "github.com/lasierra/table-reservations/internal/usecase/get_availability"
	"github.com/lasierra/table-reservations/pkg/dbmetrics"
	"github.com/lasierra/table-reservations/pkg/logger"
	"github.com/lasierra/table-reservations/pkg/metrics"
	"github.com/lasierra/table-reservations/pkg/txmanager"
)

const configPath = "config.toml"

// dayCache what the write paths and the projector need from the occupancy cache
type dayCache interface {
	occupancyService.DayCache
	reservationsService.OccupancyCache
}

// recoveryLogger adapts the logger to gorilla's RecoveryHandlerLogger
type recoveryLogger struct {
	log *logger.Logger
}

func (r recoveryLogger) Println(v ...interface{}) {
	r.log.Error("Recovered from panic: %s", fmt.Sprint(v...))
}

func main() {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting table-reservations...")

	location, err := cfg.Booking.Location()
	if err != nil {
		log.Fatal("Invalid booking time zone: %v", err)
	}
	log.Info("Booking rules: time_zone=%s, min_notice=%s, store_timeout=%s, max_attempts=%d",
		location, cfg.Booking.MinNotice(), cfg.Booking.StoreTimeout(), cfg.Booking.MaxAttempts)

	// Metrics are optional; a nil collector records nothing
	var (
		metricsCollector *metrics.Metrics
		dbRecorder       dbmetrics.Recorder
	)
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		dbRecorder = metricsCollector
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// Store
	sqlDB, dialect, err := database.Open(startupCtx, database.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetimeDuration(),
	})
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer sqlDB.Close()
	log.Info("Connected to %s database", dialect.Driver)

	if cfg.Database.AutoMigrate {
		applied, err := database.Migrate(startupCtx, sqlDB, dialect)
		if err != nil {
			log.Fatal("Failed to apply migrations: %v", err)
		}
		log.Info("Migrations applied: %d", applied)
	}

	db := dbmetrics.WrapWithDefault(sqlDB, dbRecorder, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(db, txmanager.Options{
		SerializableOpts: dialect.SerializableTx,
		ReadOnlyOpts:     dialect.ReadOnlyTx,
		MaxAttempts:      cfg.Booking.SerializableRetries,
		Backoff:          cfg.Booking.RetryBackoff(),
		IsRetryable:      database.IsSerializationFailure,
	})

	// Occupancy cache
	var cache dayCache = occupancyCache.Noop{}
	if cfg.Redis.Enabled {
		client, err := occupancyCache.NewClient(startupCtx, occupancyCache.ClientOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn("Occupancy cache disabled: %v", err)
		} else {
			defer client.Close()
			cache = occupancyCache.NewCache(client, cfg.Redis.Prefix, cfg.Redis.TTL())
			log.Info("Occupancy cache connected (addr=%s, ttl=%s)", cfg.Redis.Addr, cfg.Redis.TTL())
		}
	}

	// Reservation events
	var publisher reservationsService.EventPublisher = events.Noop{}
	if cfg.RabbitMQ.Enabled {
		p, err := events.NewPublisher(events.Options{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.Exchange})
		if err != nil {
			log.Warn("Reservation events disabled: %v", err)
		} else {
			defer p.Close()
			publisher = p
			log.Info("Publishing reservation events to exchange %q", cfg.RabbitMQ.Exchange)
		}
	}

	// Repositories and services
	reservationRepository := reservationRepo.NewRepository(db, dialect)

	checker := availabilityService.NewChecker(reservationRepository, location, cfg.Booking.StoreTimeout(), log)
	allocator := allocationService.NewAllocator(reservationRepository, cfg.Booking.StoreTimeout(), log)
	projector := occupancyService.NewProjector(reservationRepository, cache, location, log)

	reservationsSvc := reservationsService.NewService(
		reservationRepository,
		checker,
		allocator,
		txMgr,
		cache,
		publisher,
		metricsCollector,
		reservationsService.Options{
			Location:    location,
			MinNotice:   cfg.Booking.MinNotice(),
			MaxAttempts: cfg.Booking.MaxAttempts,
		},
		log,
	)

	// Use cases
	createReservationUseCase := createReservationUC.NewUseCase(
		reservationRepository,
		checker,
		allocator,
		txMgr,
		cache,
		publisher,
		metricsCollector,
		createReservationUC.Options{
			Location:     location,
			MinNotice:    cfg.Booking.MinNotice(),
			StoreTimeout: cfg.Booking.StoreTimeout(),
			MaxAttempts:  cfg.Booking.MaxAttempts,
		},
		log,
	)
	getAvailabilityUseCase := getAvailabilityUC.NewUseCase(checker, log)

	// Background completion of ended reservations
	var scheduler *jobs.Scheduler
	if cfg.Jobs.CompletionEnabled {
		scheduler, err = jobs.NewScheduler(reservationsSvc, cfg.Jobs.CompletionSchedule, cfg.Jobs.Timeout(), location, log)
		if err != nil {
			log.Fatal("Failed to create completion job: %v", err)
		}
		scheduler.RunOnce()
		scheduler.Start()
		log.Info("Completion job scheduled: %s", cfg.Jobs.CompletionSchedule)
	}

	// Handlers
	createReservation := createReservationHandler.NewHandler(createReservationUseCase, log)
	listReservations := listReservationsHandler.NewHandler(reservationsSvc, log)
	getReservation := getReservationHandler.NewHandler(reservationsSvc, log)
	updateReservation := updateReservationHandler.NewHandler(reservationsSvc, log)
	cancelReservation := cancelReservationHandler.NewHandler(reservationsSvc, log)
	deleteReservation := deleteReservationHandler.NewHandler(reservationsSvc, log)
	getAvailability := getAvailabilityHandler.NewHandler(getAvailabilityUseCase, log)
	getOccupancy := getOccupancyHandler.NewHandler(projector, log)
	getTableTimeline := getTableTimelineHandler.NewHandler(projector, log)
	health := healthHandler.NewHandler(db, log)

	r := mux.NewRouter()
	r.Use(middleware.Logging(log))

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", health.Handle).Methods(http.MethodGet)

	api := r.PathPrefix(cfg.Server.APIPrefix).Subrouter()

	// Reservations
	api.HandleFunc("/reservations", createReservation.Handle).Methods(http.MethodPost)
	api.HandleFunc("/reservations", listReservations.Handle).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id}", getReservation.Handle).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id}", updateReservation.Handle).Methods(http.MethodPut)
	api.HandleFunc("/reservations/{id}", deleteReservation.Handle).Methods(http.MethodDelete)
	api.HandleFunc("/reservations/{id}/cancel", cancelReservation.Handle).Methods(http.MethodPatch)

	// Availability and occupancy
	api.HandleFunc("/availability", getAvailability.Handle).Methods(http.MethodGet)
	api.HandleFunc("/occupancy", getOccupancy.Handle).Methods(http.MethodGet)
	api.HandleFunc("/tables/{tableNumber}/reservations", getTableTimeline.Handle).Methods(http.MethodGet)

	// The booking UI runs on another origin
	handler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(cfg.Server.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type"}),
	)(r)
	handler = gorillaHandlers.RecoveryHandler(gorillaHandlers.RecoveryLogger(recoveryLogger{log: log}))(handler)

	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("Starting server on %s (api prefix %s)", addr, cfg.Server.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
		log.Info("Completion job stopped")
	}

	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
