package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jobmonitor/backend/internal/core/ports"
	"github.com/jobmonitor/backend/internal/domain"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
	"github.com/jobmonitor/backend/internal/transport/http/dto"
)

const baseURLLocal = "base_url"

// WatchHandler pushes a job's state over a websocket every interval until
// the job is no longer pending, then closes the connection.
type WatchHandler struct {
	service  ports.JobService
	interval time.Duration
	logger   *logger.Logger
}

func NewWatchHandler(service ports.JobService, interval time.Duration, logger *logger.Logger) *WatchHandler {
	if interval <= 0 {
		interval = 300 * time.Millisecond
	}
	return &WatchHandler{service: service, interval: interval, logger: logger}
}

// Upgrade rejects plain HTTP requests and remembers the base URL, which is
// not available on the websocket connection itself.
func (h *WatchHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}
	c.Locals(baseURLLocal, c.BaseURL())
	return c.Next()
}

func (h *WatchHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	id := c.Params("id")
	baseURL, _ := c.Locals(baseURLLocal).(string)
	ctx := context.Background()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Infow("job_watch_start", "id", id)
	for {
		job, err := h.service.Get(ctx, id)
		if err != nil {
			msg := err.Error()
			if errors.Is(err, domain.ErrJobNotFound) {
				msg = notFoundMessage(id)
			}
			_ = c.WriteJSON(dto.ErrorResponse{Message: msg})
			return
		}
		if err := c.WriteJSON(dto.JobToResponse(job, baseURL)); err != nil {
			h.logger.Warnw("job_watch_write_failed", "id", id, "error", err)
			return
		}
		if !job.Status.IsPending() {
			h.logger.Infow("job_watch_done", "id", id, "status", job.Status)
			return
		}
		<-ticker.C
	}
}
