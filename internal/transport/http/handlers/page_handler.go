package handlers

import (
	"bytes"
	"errors"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jobmonitor/backend/internal/core/ports"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
)

const notFoundPage = "errors/404"

// PageData is what every page template is rendered with.
type PageData struct {
	AppName    string
	ActivePage string
}

// PageHandler renders <templates>/<page>.html for any path not claimed by
// the APIs, after resolving default child pages.
type PageHandler struct {
	pages        ports.PageResolver
	templatesDir string
	appName      string
	logger       *logger.Logger
}

func NewPageHandler(pages ports.PageResolver, templatesDir, appName string, logger *logger.Logger) *PageHandler {
	return &PageHandler{pages: pages, templatesDir: templatesDir, appName: appName, logger: logger}
}

func (h *PageHandler) ServePage(c *fiber.Ctx) error {
	child := h.pages.DefaultChildPath(c.Params("*"))
	body, err := h.render(child)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return h.NotFound(c)
		}
		h.logger.Errorw("page_render_failed", "page", child, "error", err)
		return fiber.ErrInternalServerError
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(body)
}

func (h *PageHandler) NotFound(c *fiber.Ctx) error {
	body, err := h.render(notFoundPage)
	if err != nil {
		return fiber.ErrNotFound
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(fiber.StatusNotFound).Send(body)
}

func (h *PageHandler) templatePath(page string) (string, error) {
	clean := filepath.Clean("/" + page)
	if clean == "/" || strings.Contains(page, "..") {
		return "", os.ErrNotExist
	}
	return filepath.Join(h.templatesDir, filepath.FromSlash(clean)+".html"), nil
}

func (h *PageHandler) render(page string) ([]byte, error) {
	path, err := h.templatePath(page)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	tmpl, err := template.ParseFiles(path)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	activePage := page
	if page == notFoundPage {
		activePage = "404"
	}
	if err := tmpl.Execute(&buf, PageData{AppName: h.appName, ActivePage: activePage}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
