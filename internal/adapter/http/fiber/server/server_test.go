package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/slack-relay/internal/adapter/external/notification"
	"github.com/seu-repo/slack-relay/internal/domain"
	"github.com/seu-repo/slack-relay/internal/mocks"
	"github.com/seu-repo/slack-relay/internal/service/health"
	"github.com/seu-repo/slack-relay/internal/service/relay"
	"github.com/seu-repo/slack-relay/internal/service/transcription"
	"github.com/seu-repo/slack-relay/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		App:        config.AppConfig{Name: "slack-relay-test"},
		Slack:      config.SlackConfig{WebhookSource: string(domain.WebhookSourceEither), CheckStatus: true},
		Prometheus: config.PrometheusConfig{Enabled: true, Path: "/metrics"},
		CORS:       config.CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}},
		Limits:     config.LimitsConfig{MaxUploadSizeMB: 1},
	}
}

type testEnv struct {
	app     *fiber.App
	model   *mocks.MockTranscriber
	tempDir string
}

// setupTestApp wires the real services over a real webhook adapter and a
// stub model, the way cmd/server does.
func setupTestApp(t *testing.T, webhookURL string, checkStatus bool) *testEnv {
	t.Helper()

	log := zap.NewNop()
	cfg := testConfig()
	cfg.Slack.WebhookURL = webhookURL
	cfg.Slack.CheckStatus = checkStatus

	events := &mocks.MockEventPublisher{}
	relaySvc := relay.NewService(relay.Config{
		WebhookURL:  webhookURL,
		Source:      domain.WebhookSourceEither,
		CheckStatus: checkStatus,
	}, notification.NewSlackWebhookAdapter(0, notification.BreakerSettings{}, log), events, log)

	model := &mocks.MockTranscriber{}
	tempDir := t.TempDir()
	transcriptionSvc := transcription.NewService(transcription.Config{TempDir: tempDir, FileSuffix: ".mp3"}, model, events, log)

	app := New(Deps{
		Config:        cfg,
		Relay:         relaySvc,
		Transcription: transcriptionSvc,
		Health:        health.NewService("test", log),
		Log:           log,
	})

	return &testEnv{app: app, model: model, tempDir: tempDir}
}

func webhookStub(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(t, app, req)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp, result
}

func multipartRequest(t *testing.T, build func(w *multipart.Writer)) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	build(w)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestAPI_HealthCheck(t *testing.T) {
	env := setupTestApp(t, "", true)

	// a failing request first must not affect liveness
	postJSON(t, env.app, "/api/slack-message", map[string]string{})

	for i := 0; i < 2; i++ {
		resp, result := do(t, env.app, httptest.NewRequest(http.MethodGet, "/health", nil))
		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected status 200, got %d", resp.StatusCode)
		}
		if result["status"] != "healthy" || len(result) != 1 {
			t.Errorf("Expected exactly {status: healthy}, got %v", result)
		}
	}
}

func TestAPI_SlackMessage_TextRequired(t *testing.T) {
	srv := webhookStub(t, http.StatusOK)

	for _, checkStatus := range []bool{true, false} {
		env := setupTestApp(t, srv.URL, checkStatus)

		resp, result := postJSON(t, env.app, "/api/slack-message", map[string]string{})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", resp.StatusCode)
		}
		if result["success"] != false || result["error"] != "Text required" {
			t.Errorf("Unexpected body %v", result)
		}
	}
}

func TestAPI_SlackMessage_Sent(t *testing.T) {
	srv := webhookStub(t, http.StatusOK)
	env := setupTestApp(t, srv.URL, true)

	resp, result := postJSON(t, env.app, "/api/slack-message", map[string]string{"text": "hi"})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if result["success"] != true || result["message"] != "Message sent to Slack" {
		t.Errorf("Unexpected body %v", result)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}
}

func TestAPI_SlackMessage_WebhookFromRequest(t *testing.T) {
	srv := webhookStub(t, http.StatusOK)
	env := setupTestApp(t, "", true)

	resp, result := postJSON(t, env.app, "/api/slack-message", map[string]string{"text": "hi", "webhook_url": srv.URL})
	if resp.StatusCode != http.StatusOK || result["success"] != true {
		t.Errorf("Expected success, got %d %v", resp.StatusCode, result)
	}

	resp, result = postJSON(t, env.app, "/api/slack-message", map[string]string{"text": "hi"})
	if resp.StatusCode != http.StatusBadRequest || result["error"] != "Webhook URL required" {
		t.Errorf("Expected webhook URL error, got %d %v", resp.StatusCode, result)
	}
}

func TestAPI_SlackMessage_UpstreamRejects(t *testing.T) {
	srv := webhookStub(t, http.StatusInternalServerError)

	env := setupTestApp(t, srv.URL, true)
	resp, result := postJSON(t, env.app, "/api/slack-message", map[string]string{"text": "hi"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
	if result["success"] != false || result["error"] != "Failed to send message to Slack" {
		t.Errorf("Unexpected body %v", result)
	}

	// the variant without status checks reports success
	env = setupTestApp(t, srv.URL, false)
	resp, result = postJSON(t, env.app, "/api/slack-message", map[string]string{"text": "hi"})
	if resp.StatusCode != http.StatusOK || result["success"] != true {
		t.Errorf("Expected unchecked success, got %d %v", resp.StatusCode, result)
	}
}

func TestAPI_SlackMessage_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/services/T000/B000/SECRETTOKEN"
	srv.Close()

	env := setupTestApp(t, url, true)
	resp, result := postJSON(t, env.app, "/api/slack-message", map[string]string{"text": "hi"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", resp.StatusCode)
	}
	if result["success"] != false || result["error"] == "" {
		t.Errorf("Expected error text, got %v", result)
	}
	if msg, _ := result["error"].(string); strings.Contains(msg, "SECRETTOKEN") {
		t.Errorf("Expected webhook path to stay out of the response, got %q", msg)
	}
}

func TestAPI_SlackMessage_InvalidBody(t *testing.T) {
	env := setupTestApp(t, "http://unused", true)

	req := httptest.NewRequest(http.MethodPost, "/api/slack-message", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, result := do(t, env.app, req)
	if resp.StatusCode != http.StatusBadRequest || result["success"] != false {
		t.Errorf("Expected 400 envelope, got %d %v", resp.StatusCode, result)
	}
}

func TestAPI_Transcribe_NoFileUploaded(t *testing.T) {
	env := setupTestApp(t, "", true)

	req := multipartRequest(t, func(w *multipart.Writer) {
		w.WriteField("language", "en")
	})
	resp, result := do(t, env.app, req)
	if resp.StatusCode != http.StatusBadRequest || result["error"] != "No file uploaded" {
		t.Errorf("Expected 'No file uploaded', got %d %v", resp.StatusCode, result)
	}

	// not multipart at all
	resp, result = postJSON(t, env.app, "/api/transcribe", map[string]string{"file": "x"})
	if resp.StatusCode != http.StatusBadRequest || result["error"] != "No file uploaded" {
		t.Errorf("Expected 'No file uploaded', got %d %v", resp.StatusCode, result)
	}
}

func TestAPI_Transcribe_NoFileSelected(t *testing.T) {
	env := setupTestApp(t, "", true)

	req := multipartRequest(t, func(w *multipart.Writer) {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename=""`)
		h.Set("Content-Type", "application/octet-stream")
		part, _ := w.CreatePart(h)
		part.Write([]byte{})
	})
	resp, result := do(t, env.app, req)
	if resp.StatusCode != http.StatusBadRequest || result["error"] != "No file selected" {
		t.Errorf("Expected 'No file selected', got %d %v", resp.StatusCode, result)
	}
	if len(env.model.Paths) != 0 {
		t.Error("Expected model not to be invoked")
	}
}

func TestAPI_Transcribe_TextFieldNamedFile(t *testing.T) {
	env := setupTestApp(t, "", true)

	req := multipartRequest(t, func(w *multipart.Writer) {
		w.WriteField("file", "not an upload")
	})
	resp, result := do(t, env.app, req)
	if resp.StatusCode != http.StatusBadRequest || result["error"] != "No file uploaded" {
		t.Errorf("Expected 'No file uploaded', got %d %v", resp.StatusCode, result)
	}
}

func TestAPI_Transcribe_Success(t *testing.T) {
	env := setupTestApp(t, "", true)

	var tempPath string
	env.model.TranscribeFunc = func(ctx context.Context, audioPath string) (*domain.Transcript, error) {
		tempPath = audioPath
		if _, err := os.Stat(audioPath); err != nil {
			t.Errorf("Expected temp file during transcription: %v", err)
		}
		return &domain.Transcript{Text: "hello world"}, nil
	}

	req := multipartRequest(t, func(w *multipart.Writer) {
		part, _ := w.CreateFormFile("file", "voice.mp3")
		io.WriteString(part, "ID3...fake mp3 bytes")
	})
	resp, result := do(t, env.app, req)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if result["success"] != true || result["transcription"] != "hello world" {
		t.Errorf("Unexpected body %v", result)
	}
	if tempPath == "" {
		t.Fatal("Expected model to be invoked")
	}
	if _, err := os.Stat(tempPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected temp file removed after response, stat returned %v", err)
	}
}

func TestAPI_Transcribe_BodyTooLarge(t *testing.T) {
	env := setupTestApp(t, "", true)

	// app.Test surfaces the body limit as a client error, so serve for real
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go env.app.Listener(ln)
	t.Cleanup(func() { env.app.Shutdown() })

	req := multipartRequest(t, func(w *multipart.Writer) {
		part, _ := w.CreateFormFile("file", "big.mp3")
		part.Write(bytes.Repeat([]byte{0xff}, 2<<20))
	})
	req.RequestURI = ""
	req.URL.Scheme = "http"
	req.URL.Host = ln.Addr().String()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", resp.StatusCode)
	}
	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["success"] != false || result["error"] != "Request Entity Too Large" {
		t.Errorf("Expected error envelope, got %v", result)
	}
	if len(env.model.Paths) != 0 {
		t.Error("Expected model not to be invoked")
	}
}

func TestAPI_Transcribe_ModelFailure(t *testing.T) {
	env := setupTestApp(t, "", true)
	env.model.TranscribeFunc = func(ctx context.Context, audioPath string) (*domain.Transcript, error) {
		return nil, errors.New("CUDA out of memory")
	}

	req := multipartRequest(t, func(w *multipart.Writer) {
		part, _ := w.CreateFormFile("file", "voice.mp3")
		io.WriteString(part, "bytes")
	})
	resp, result := do(t, env.app, req)

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", resp.StatusCode)
	}
	if result["success"] != false || result["error"] != "CUDA out of memory" {
		t.Errorf("Unexpected body %v", result)
	}

	entries, _ := os.ReadDir(env.tempDir)
	if len(entries) != 0 {
		t.Errorf("Expected no leftover temp files, found %d", len(entries))
	}

	// the process keeps serving
	resp, _ = do(t, env.app, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected health 200 after failure, got %d", resp.StatusCode)
	}
}

func TestAPI_Transcribe_Disabled(t *testing.T) {
	log := zap.NewNop()
	app := New(Deps{
		Config: testConfig(),
		Relay:  &mocks.MockRelayService{},
		Health: health.NewService("test", log),
		Log:    log,
	})

	req := multipartRequest(t, func(w *multipart.Writer) {
		part, _ := w.CreateFormFile("file", "voice.mp3")
		io.WriteString(part, "bytes")
	})
	resp, result := do(t, app, req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 when transcription is off, got %d", resp.StatusCode)
	}
	if result["success"] != false {
		t.Errorf("Expected error envelope, got %v", result)
	}
}

func TestAPI_CORS(t *testing.T) {
	env := setupTestApp(t, "", true)

	req := httptest.NewRequest(http.MethodOptions, "/api/slack-message", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard origin, got %q", got)
	}
}

func TestAPI_Metrics(t *testing.T) {
	env := setupTestApp(t, "", true)
	do(t, env.app, httptest.NewRequest(http.MethodGet, "/health", nil))

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if !bytes.Contains(body, []byte("slack_relay_http_requests_total")) {
		t.Error("Expected HTTP request counter in metrics output")
	}
}
