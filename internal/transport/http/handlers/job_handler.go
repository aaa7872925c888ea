package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/jobmonitor/backend/internal/core/ports"
	"github.com/jobmonitor/backend/internal/core/services"
	"github.com/jobmonitor/backend/internal/domain"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
	"github.com/jobmonitor/backend/internal/transport/http/dto"
)

type JobHandler struct {
	service ports.JobService
	logger  *logger.Logger
}

func NewJobHandler(service ports.JobService, logger *logger.Logger) *JobHandler {
	return &JobHandler{service: service, logger: logger}
}

func notFoundMessage(id string) string {
	return fmt.Sprintf("Could not find job with ID `%s`", id)
}

func (h *JobHandler) ListJobs(c *fiber.Ctx) error {
	jobs, err := h.service.List(c.UserContext())
	if err != nil {
		h.logger.Errorw("jobs_list_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Message: err.Error(),
		})
	}
	return c.JSON(fiber.Map{"jobs": dto.JobsToResponse(jobs, c.BaseURL())})
}

func (h *JobHandler) CreateJob(c *fiber.Ctx) error {
	if !c.Is("json") {
		h.logger.Warnw("job_create_not_json", "content_type", c.Get(fiber.HeaderContentType))
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Message: "Request body must be JSON",
		})
	}

	var req dto.CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("job_create_body_parse_failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Message: "Invalid JSON body",
		})
	}

	job, err := h.service.Submit(c.UserContext(), req.TaskName, req.Args)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoTaskName):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Message: "No task name provided",
			})
		case errors.Is(err, services.ErrInvalidTaskName):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Message: fmt.Sprintf("Invalid task name `%s`", req.TaskName),
			})
		}
		h.logger.Errorw("job_create_failed", "task", req.TaskName, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"job": dto.JobToResponse(job, c.BaseURL())})
}

func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	id := utils.CopyString(c.Params("id"))
	job, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Message: notFoundMessage(id),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Message: err.Error(),
		})
	}
	return c.JSON(fiber.Map{"job": dto.JobToResponse(job, c.BaseURL())})
}

// Fetch is the polling API. Unknown jobs are reported inside the envelope
// with a 200 so that pollers only branch on the success flag.
func (h *JobHandler) Fetch(c *fiber.Ctx) error {
	id := utils.CopyString(c.Params("id"))
	state, err := h.service.Fetch(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return c.JSON(dto.EnvelopeFailure(notFoundMessage(id)))
		}
		h.logger.Errorw("job_fetch_failed", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.EnvelopeFailure(err.Error()))
	}
	return c.JSON(dto.FetchEnvelope(state))
}

func (h *JobHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	records, err := h.service.History(c.UserContext(), limit)
	if err != nil {
		if errors.Is(err, services.ErrHistoryDisabled) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Message: "Job history is not enabled",
			})
		}
		h.logger.Errorw("job_history_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Message: err.Error(),
		})
	}
	return c.JSON(fiber.Map{"jobs": records})
}
