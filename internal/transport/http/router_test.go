package http

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jobmonitor/backend/internal/config"
	"github.com/jobmonitor/backend/internal/core/services"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
	"github.com/jobmonitor/backend/internal/infrastructure/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const histogramsYAML = `
objects:
  - name: histogram_0
    title: Gaussian
    class: TH1F
    x_axis: {title: x, bins: 2, low: 0, high: 1}
    y_axis: {title: Entries}
    contents: [3, 5]
  - name: my hist
    title: Spaced
    class: TH1F
    x_axis: {title: x, bins: 1, low: 0, high: 1}
    y_axis: {title: Entries}
    contents: [9]
`

type testServer struct {
	app      *fiber.App
	cfg      *config.Config
	registry *services.TaskRegistry
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestServer(t *testing.T, token string) *testServer {
	t.Helper()
	root := t.TempDir()
	templates := filepath.Join(root, "templates")
	writeFile(t, filepath.Join(templates, "examples", "table.html"), "<h1>{{.AppName}}</h1><p>{{.ActivePage}}</p>")
	writeFile(t, filepath.Join(templates, "errors", "404.html"), "missing {{.ActivePage}}")
	writeFile(t, filepath.Join(root, "files", "histograms.yaml"), histogramsYAML)

	cfg := &config.Config{
		AppName: "Job Monitor",
		Queue:   config.QueueConfig{PollInterval: 10 * time.Millisecond},
		Files:   config.FilesConfig{Directory: filepath.Join(root, "files"), Extension: ".yaml"},
		Pages: config.PagesConfig{
			TemplatesDirectory: templates,
			DefaultChildren: []config.DefaultChild{
				{Parent: "", Child: "examples"},
				{Parent: "examples", Child: "examples/table"},
			},
		},
		Auth: config.AuthConfig{APIToken: token},
	}

	log := logger.NewNop()
	q := queue.NewMemoryQueue("default", 0)
	fileService := services.NewFileService(cfg.Files, log)
	registry := services.NewTaskRegistry()
	services.RegisterBuiltinTasks(registry, fileService)
	chain, err := services.NewResolverChain(services.PrefixResolver{Prefix: services.TaskPrefix, Registry: registry})
	require.NoError(t, err)

	jobs := services.NewJobService(services.JobServiceConfig{Queue: q, Resolvers: chain, Logger: log})
	worker := services.NewWorker(services.WorkerConfig{
		Queue:          q,
		Registry:       registry,
		Logger:         log,
		Concurrency:    2,
		DequeueTimeout: 20 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)
	t.Cleanup(func() {
		cancel()
		worker.Wait()
	})

	app := fiber.New(AppConfig(fiber.Config{}))
	SetupRoutes(app, RouterConfig{
		Jobs:   jobs,
		Files:  fileService,
		Pages:  services.NewPageResolver(cfg.Pages.DefaultChildMap()),
		Logger: log,
		Config: cfg,
	})
	return &testServer{app: app, cfg: cfg, registry: registry}
}

func (s *testServer) do(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func (s *testServer) get(t *testing.T, path string) (int, map[string]any) {
	t.Helper()
	status, body := s.do(t, httptest.NewRequest(http.MethodGet, path, nil))
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return status, out
}

func (s *testServer) postJob(t *testing.T, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	status, raw := s.do(t, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return status, out
}

// waitFetch polls /fetch/:id until the job leaves the pending states.
func (s *testServer) waitFetch(t *testing.T, id string) map[string]any {
	t.Helper()
	var data map[string]any
	require.Eventually(t, func() bool {
		_, out := s.get(t, "/fetch/"+id)
		data, _ = out["data"].(map[string]any)
		status, _ := data["status"].(string)
		return status == "finished" || status == "failed"
	}, 2*time.Second, 10*time.Millisecond)
	return data
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")
	status, out := s.get(t, "/health")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", out["status"])
}

func TestCreateJob(t *testing.T) {
	s := newTestServer(t, "")
	status, out := s.postJob(t, `{"task_name": "add", "args": {"a": 1, "b": 3}}`)
	require.Equal(t, fiber.StatusCreated, status)

	job := out["job"].(map[string]any)
	id := job["id"].(string)
	assert.Equal(t, "http://example.com/jobs/"+id, job["uri"])
	assert.Contains(t, []any{"queued", "started", "finished"}, job["status"])

	data := s.waitFetch(t, id)
	assert.Equal(t, "finished", data["status"])
	assert.Equal(t, id, data["job_id"])
	assert.Equal(t, 4.0, data["result"])

	status, out = s.get(t, "/jobs/"+id)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 4.0, out["job"].(map[string]any)["result"])
}

func TestCreateJobErrors(t *testing.T) {
	s := newTestServer(t, "")

	status, out := s.postJob(t, `{"args": {}}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "No task name provided", out["message"])

	status, out = s.postJob(t, `{"task_name": "subtract"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid task name `subtract`", out["message"])

	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader("task_name=add"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	status, raw := s.do(t, req)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(raw), "message")
}

func TestCreateJobRequiresToken(t *testing.T) {
	s := newTestServer(t, "secret")

	status, out := s.postJob(t, `{"task_name": "add", "args": {"a": 1, "b": 1}}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", out["message"])

	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(`{"task_name": "add", "args": {"a": 1, "b": 1}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret")
	status, _ = s.do(t, req)
	assert.Equal(t, fiber.StatusCreated, status)
}

func TestListJobs(t *testing.T) {
	s := newTestServer(t, "")
	status, out := s.get(t, "/jobs")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, out, "jobs")
}

func TestGetUnknownJob(t *testing.T) {
	s := newTestServer(t, "")
	status, out := s.get(t, "/jobs/fake_id")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Could not find job with ID `fake_id`", out["message"])
}

func TestFetchUnknownJob(t *testing.T) {
	s := newTestServer(t, "")
	status, out := s.get(t, "/fetch/fake_id")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Could not find job with ID `fake_id`", out["message"])
}

func TestHistoryDisabled(t *testing.T) {
	s := newTestServer(t, "")
	status, _ := s.get(t, "/history")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestFilesList(t *testing.T) {
	s := newTestServer(t, "")
	status, out := s.get(t, "/files/histograms/list")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, out["success"])
	receipt := out["data"].(map[string]any)
	assert.Equal(t, "submitted", receipt["status"])

	data := s.waitFetch(t, receipt["job_id"].(string))
	result := data["result"].(map[string]any)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, []any{"histogram_0", "my hist"}, result["data"].(map[string]any)["keys"])
}

func TestFilesGetKey(t *testing.T) {
	s := newTestServer(t, "")
	_, out := s.get(t, "/files/histograms/histogram_0")
	receipt := out["data"].(map[string]any)

	data := s.waitFetch(t, receipt["job_id"].(string))
	result := data["result"].(map[string]any)
	require.Equal(t, true, result["success"])
	payload := result["data"].(map[string]any)
	assert.Equal(t, "histogram_0", payload["key_name"])
	assert.Equal(t, "TH1F", payload["key_class"])
	keyData := payload["key_data"].(map[string]any)
	assert.Equal(t, []any{3.0, 5.0}, keyData["values"])
}

func TestFilesGetMissingKey(t *testing.T) {
	s := newTestServer(t, "")
	_, out := s.get(t, "/files/histograms/nope")
	receipt := out["data"].(map[string]any)

	data := s.waitFetch(t, receipt["job_id"].(string))
	result := data["result"].(map[string]any)
	assert.Equal(t, false, result["success"])
	assert.Contains(t, result["message"], "Could not find key `nope`")
}

func TestFilesDownload(t *testing.T) {
	s := newTestServer(t, "")
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/files/histograms", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, fiber.MIMEOctetStream, resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "histograms.yaml")
	assert.Equal(t, histogramsYAML, string(body))

	status, _ := s.get(t, "/files/missing")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestPages(t *testing.T) {
	s := newTestServer(t, "")

	status, body := s.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "<h1>Job Monitor</h1><p>examples/table</p>", string(body))

	status, body = s.do(t, httptest.NewRequest(http.MethodGet, "/examples", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "examples/table")

	status, body = s.do(t, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "missing 404", string(body))
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	s := newTestServer(t, "")
	status, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/ws/jobs/abc", nil))
	assert.Equal(t, fiber.StatusUpgradeRequired, status)
}

func TestFilesGetEscapedKey(t *testing.T) {
	s := newTestServer(t, "")
	_, out := s.get(t, "/files/histograms/my%20hist")
	receipt := out["data"].(map[string]any)

	data := s.waitFetch(t, receipt["job_id"].(string))
	result := data["result"].(map[string]any)
	require.Equal(t, true, result["success"], result["message"])
	payload := result["data"].(map[string]any)
	assert.Equal(t, "my hist", payload["key_name"])
	assert.Equal(t, []any{9.0}, payload["key_data"].(map[string]any)["values"])
}

// listen serves the app on a loopback port and returns its address.
func (s *testServer) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.app.Listener(ln) }()
	t.Cleanup(func() { _ = s.app.Shutdown() })
	return ln.Addr().String()
}

func dialWatch(t *testing.T, addr, id string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/jobs/"+id, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestWatchJobPushesUntilTerminal(t *testing.T) {
	s := newTestServer(t, "")
	release := make(chan struct{})
	s.registry.Register(services.TaskPrefix+".wait", func(ctx context.Context, args map[string]any) (any, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "done", nil
	})

	status, out := s.postJob(t, `{"task_name": "wait"}`)
	require.Equal(t, fiber.StatusCreated, status)
	id := out["job"].(map[string]any)["id"].(string)

	conn := dialWatch(t, s.listen(t), id)

	var first map[string]any
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, id, first["id"])
	assert.Contains(t, []any{"queued", "started"}, first["status"])
	assert.Contains(t, first["uri"], "/jobs/"+id)

	close(release)

	var last map[string]any
	for {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		last = msg
		if msg["status"] != "queued" && msg["status"] != "started" {
			break
		}
	}
	assert.Equal(t, "finished", last["status"])
	assert.Equal(t, "done", last["result"])

	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestWatchUnknownJob(t *testing.T) {
	s := newTestServer(t, "")
	conn := dialWatch(t, s.listen(t), "fake_id")

	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "Could not find job with ID `fake_id`", msg["message"])

	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
