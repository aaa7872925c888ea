package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jobmonitor/backend/internal/config"
	"github.com/jobmonitor/backend/internal/core/ports"
	"github.com/jobmonitor/backend/internal/core/services"
	"github.com/jobmonitor/backend/internal/infrastructure/db"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
	"github.com/jobmonitor/backend/internal/infrastructure/queue"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "config/config.yaml", "path to the config file")
	workers := pflag.IntP("workers", "w", 0, "number of concurrent jobs (default from config)")
	burst := pflag.Bool("burst", false, "exit once the queue is empty")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if cfg.Queue.Backend == "memory" {
		panic("the memory queue cannot be shared with a separate worker process")
	}
	if *workers > 0 {
		cfg.Queue.Workers = *workers
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobQueue, closeQueue, err := queue.Open(ctx, cfg, log)
	if err != nil {
		log.Fatalf("failed to open job queue: %v", err)
	}
	defer closeQueue()

	var history ports.JobRecordRepository
	if cfg.Database.Enabled {
		database, err := db.NewPostgresConnection(cfg.Database)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close(database)
		if err := db.RunMigrations(database); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		history = db.NewJobRecordRepository(database, log)
	}

	registry := services.NewTaskRegistry()
	services.RegisterBuiltinTasks(registry, services.NewFileService(cfg.Files, log.Named("files")))

	worker := services.NewWorker(services.WorkerConfig{
		Queue:          jobQueue,
		Registry:       registry,
		History:        history,
		Logger:         log.Named("worker"),
		Concurrency:    cfg.Queue.Workers,
		DequeueTimeout: cfg.Queue.DequeueTimeout,
	})

	if *burst {
		n, err := worker.Drain(ctx)
		if err != nil {
			log.Fatalf("worker failed: %v", err)
		}
		log.Infow("worker_burst_done", "jobs", n)
		return
	}
	worker.Run(ctx)
}
