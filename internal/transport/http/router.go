package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jobmonitor/backend/internal/config"
	"github.com/jobmonitor/backend/internal/core/ports"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
	"github.com/jobmonitor/backend/internal/transport/http/handlers"
	httpmw "github.com/jobmonitor/backend/internal/transport/http/middleware"
)

type RouterConfig struct {
	Jobs   ports.JobService
	Files  ports.FileService
	Pages  ports.PageResolver
	Logger *logger.Logger
	Config *config.Config
}

// AppConfig sets the fiber options the routes rely on: params are decoded
// so file and key names may carry escaped characters, and strings taken
// from the request outlive the handler.
func AppConfig(base fiber.Config) fiber.Config {
	base.UnescapePath = true
	base.Immutable = true
	return base
}

func SetupRoutes(app *fiber.App, cfg RouterConfig) {
	jobHandler := handlers.NewJobHandler(cfg.Jobs, cfg.Logger)
	fileHandler := handlers.NewFileHandler(cfg.Jobs, cfg.Files, cfg.Logger)
	watchHandler := handlers.NewWatchHandler(cfg.Jobs, cfg.Config.Queue.PollInterval, cfg.Logger)
	pageHandler := handlers.NewPageHandler(
		cfg.Pages,
		cfg.Config.Pages.TemplatesDirectory,
		cfg.Config.AppName,
		cfg.Logger,
	)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if dir := cfg.Config.Pages.AssetsDirectory; dir != "" {
		app.Static("/assets", dir)
	}

	// Jobs API
	jobs := app.Group("/jobs")
	jobs.Get("/", jobHandler.ListJobs)
	jobs.Post("/", httpmw.APIToken(cfg.Config), jobHandler.CreateJob)
	jobs.Get("/:id", jobHandler.GetJob)

	// Polling API
	app.Get("/fetch/:id", jobHandler.Fetch)
	app.Get("/history", jobHandler.History)

	// Files API. "list" must win over ":key".
	files := app.Group("/files")
	files.Get("/:file", fileHandler.Download)
	files.Get("/:file/list", fileHandler.List)
	files.Get("/:file/:key", fileHandler.GetKey)

	app.Use("/ws", watchHandler.Upgrade)
	app.Get("/ws/jobs/:id", websocket.New(watchHandler.Handle))

	app.Get("/", pageHandler.ServePage)
	app.Get("/*", pageHandler.ServePage)
}
