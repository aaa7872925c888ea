package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jobmonitor/backend/internal/config"
	"github.com/jobmonitor/backend/internal/core/ports"
	"github.com/jobmonitor/backend/internal/core/services"
	"github.com/jobmonitor/backend/internal/infrastructure/db"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
	"github.com/jobmonitor/backend/internal/infrastructure/queue"
	transporthttp "github.com/jobmonitor/backend/internal/transport/http"
	httpmw "github.com/jobmonitor/backend/internal/transport/http/middleware"
	"gorm.io/gorm"
)

func main() {
	configPath := os.Getenv("JOBMONITOR_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "../config/config.yaml"
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobQueue, closeQueue, err := queue.Open(ctx, cfg, log)
	if err != nil {
		log.Fatalf("failed to open job queue: %v", err)
	}

	var database *gorm.DB
	var history ports.JobRecordRepository
	if cfg.Database.Enabled {
		database, err = db.NewPostgresConnection(cfg.Database)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		log.Info("database connection established")

		if err := db.RunMigrations(database); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		log.Info("database migrations completed")
		history = db.NewJobRecordRepository(database, log)
	}

	fileService := services.NewFileService(cfg.Files, log.Named("files"))
	registry := services.NewTaskRegistry()
	services.RegisterBuiltinTasks(registry, fileService)
	resolvers, err := services.NewResolverChain(services.PrefixResolver{
		Prefix:   services.TaskPrefix,
		Registry: registry,
	})
	if err != nil {
		log.Fatalf("failed to build resolvers: %v", err)
	}

	jobService := services.NewJobService(services.JobServiceConfig{
		Queue:     jobQueue,
		Resolvers: resolvers,
		History:   history,
		Logger:    log.Named("jobs"),
	})
	go jobService.PruneHistory(ctx, time.Hour, cfg.Database.HistoryRetention)

	var worker *services.Worker
	if cfg.Queue.Embedded {
		worker = services.NewWorker(services.WorkerConfig{
			Queue:          jobQueue,
			Registry:       registry,
			History:        history,
			Logger:         log.Named("worker"),
			Concurrency:    cfg.Queue.Workers,
			DequeueTimeout: cfg.Queue.DequeueTimeout,
		})
		worker.Start(ctx)
	}

	app := fiber.New(transporthttp.AppConfig(fiber.Config{
		AppName:               cfg.AppName,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		ErrorHandler:          globalErrorHandler(log),
		DisableStartupMessage: true,
	}))

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	allowedOrigins := "*"
	if len(cfg.Auth.AllowedOrigins) > 0 {
		allowedOrigins = strings.Join(cfg.Auth.AllowedOrigins, ",")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Token",
		AllowMethods: "GET, POST, HEAD",
	}))

	app.Use(httpmw.RequestID(cfg.Features.RequestIDHeader))
	if cfg.Features.EnableRequestLogging {
		app.Use(httpmw.AccessLog(log))
	}

	transporthttp.SetupRoutes(app, transporthttp.RouterConfig{
		Jobs:   jobService,
		Files:  fileService,
		Pages:  services.NewPageResolver(cfg.Pages.DefaultChildMap()),
		Logger: log,
		Config: cfg,
	})

	addr := cfg.Server.Address()
	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatalf("server failed to start: %v", err)
		}
	}()
	log.Infow("server_started", "addr", addr, "queue", cfg.Queue.Backend, "embedded_worker", cfg.Queue.Embedded)

	gracefulShutdown(app, log, func() {
		cancel()
		if worker != nil {
			worker.Wait()
		}
		if err := closeQueue(); err != nil {
			log.Errorf("failed to close job queue: %v", err)
		}
		if database != nil {
			if err := db.Close(database); err != nil {
				log.Errorf("failed to close database connection: %v", err)
			}
		}
	})
}

func globalErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}

		if code < fiber.StatusInternalServerError {
			log.Warnw("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"error", err.Error(),
				"request_id", httpmw.GetRequestID(c),
			)
		} else {
			log.Errorw("request error",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"error", err.Error(),
				"request_id", httpmw.GetRequestID(c),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"message": err.Error(),
		})
	}
}

func gracefulShutdown(app *fiber.App, log *logger.Logger, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}
	cleanup()

	log.Info("server exited gracefully")
}
