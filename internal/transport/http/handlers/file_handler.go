package handlers

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/jobmonitor/backend/internal/core/ports"
	"github.com/jobmonitor/backend/internal/core/services"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
	"github.com/jobmonitor/backend/internal/transport/http/dto"
)

// FileHandler serves the files API: raw downloads plus listing and key
// reads, which run on the queue like any other job.
type FileHandler struct {
	jobs   ports.JobService
	files  ports.FileService
	logger *logger.Logger
}

func NewFileHandler(jobs ports.JobService, files ports.FileService, logger *logger.Logger) *FileHandler {
	return &FileHandler{jobs: jobs, files: files, logger: logger}
}

func (h *FileHandler) resolve(c *fiber.Ctx) (string, string, error) {
	filename := h.files.AddFileExtension(utils.CopyString(c.Params("file")))
	path, err := h.files.Path(filename)
	return filename, path, err
}

func (h *FileHandler) Download(c *fiber.Ctx) error {
	filename, path, err := h.resolve(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Message: err.Error()})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Message: fmt.Sprintf("Could not find file `%s`", filename),
			})
		}
		h.logger.Errorw("file_download_failed", "path", path, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Message: err.Error()})
	}

	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.Send(data)
}

func (h *FileHandler) List(c *fiber.Ctx) error {
	_, path, err := h.resolve(c)
	if err != nil {
		return c.JSON(dto.EnvelopeFailure(err.Error()))
	}
	return h.enqueue(c, services.TaskPrefix+".list_file", map[string]any{"filename": path})
}

func (h *FileHandler) GetKey(c *fiber.Ctx) error {
	_, path, err := h.resolve(c)
	if err != nil {
		return c.JSON(dto.EnvelopeFailure(err.Error()))
	}
	return h.enqueue(c, services.TaskPrefix+".get_key_from_file", map[string]any{
		"filename": path,
		"key_name": utils.CopyString(c.Params("key")),
	})
}

func (h *FileHandler) enqueue(c *fiber.Ctx, funcName string, args map[string]any) error {
	receipt, err := h.jobs.Enqueue(c.UserContext(), funcName, args)
	if err != nil {
		h.logger.Errorw("file_job_enqueue_failed", "func", funcName, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.EnvelopeFailure(err.Error()))
	}
	return c.JSON(dto.SubmitEnvelope(receipt))
}
