package endpoint_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/telepathy/internal/logger"
	"github.com/skillsenselab/telepathy/internal/server/endpoint"
	"github.com/skillsenselab/telepathy/internal/transcribe"
)

func testLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "fatal", Format: "json", Output: "stderr"}, "test")
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// loadedWith returns a settled loader publishing the given backend.
func loadedWith(backend transcribe.Transcriber, status transcribe.Status) *transcribe.Loader {
	loader := transcribe.NewLoader(testLogger())
	loader.Load(context.Background(), transcribe.BackendAutoAVSR,
		func(ctx context.Context) (transcribe.Transcriber, transcribe.Status, error) {
			return backend, status, nil
		})
	return loader
}

// stubLoader returns a settled loader serving the stub backend.
func stubLoader() *transcribe.Loader {
	loader := transcribe.NewLoader(testLogger())
	loader.Load(context.Background(), transcribe.BackendStub, nil)
	return loader
}

func getJSON(t *testing.T, engine *gin.Engine, path string) (int, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest("GET", path, http.NoBody))

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, rr.Body.String())
	}
	return rr.Code, body
}

func TestHealthWhileLoading(t *testing.T) {
	engine := newEngine()
	engine.GET("/health", endpoint.Health(transcribe.NewLoader(testLogger())))

	code, body := getJSON(t, engine, "/health")

	if code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 while loading", code)
	}
	if body["status"] != "loading" {
		t.Errorf("status field = %v, want \"loading\"", body["status"])
	}
	if body["ready"] != false {
		t.Errorf("ready = %v, want false", body["ready"])
	}
	for _, absent := range []string{"backend", "device", "deviceReason", "modelLoadMs", "error"} {
		if _, ok := body[absent]; ok {
			t.Errorf("field %q present while loading, want omitted", absent)
		}
	}
}

func TestHealthReadyStub(t *testing.T) {
	engine := newEngine()
	engine.GET("/health", endpoint.Health(stubLoader()))

	code, body := getJSON(t, engine, "/health")

	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200 once settled", code)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want \"ok\"", body["status"])
	}
	if body["ready"] != true {
		t.Errorf("ready = %v, want true", body["ready"])
	}
	if body["backend"] != transcribe.BackendStub {
		t.Errorf("backend = %v, want %q", body["backend"], transcribe.BackendStub)
	}
	if _, ok := body["modelLoadMs"]; !ok {
		t.Error("modelLoadMs missing after load settled")
	}
	if _, ok := body["error"]; ok {
		t.Errorf("error field = %v, want omitted without a fallback", body["error"])
	}
}

func TestHealthReportsFallback(t *testing.T) {
	loader := transcribe.NewLoader(testLogger())
	loader.Load(context.Background(), transcribe.BackendAutoAVSR,
		func(ctx context.Context) (transcribe.Transcriber, transcribe.Status, error) {
			return nil, transcribe.Status{}, errors.New("missing AutoAVSR repo")
		})

	engine := newEngine()
	engine.GET("/health", endpoint.Health(loader))

	code, body := getJSON(t, engine, "/health")

	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200: a stub fallback still serves", code)
	}
	if body["backend"] != transcribe.BackendStub {
		t.Errorf("backend = %v, want %q after fallback", body["backend"], transcribe.BackendStub)
	}
	errField, _ := body["error"].(string)
	if errField == "" {
		t.Fatal("error field missing, want construction failure message")
	}
}

func TestHealthReportsDevice(t *testing.T) {
	status := transcribe.Status{
		Backend:      transcribe.BackendAutoAVSR,
		Device:       "cuda:0",
		DeviceReason: "auto-cuda",
	}
	engine := newEngine()
	engine.GET("/health", endpoint.Health(loadedWith(&fakeBackend{name: transcribe.BackendAutoAVSR}, status)))

	code, body := getJSON(t, engine, "/health")

	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body["device"] != "cuda:0" {
		t.Errorf("device = %v, want cuda:0", body["device"])
	}
	if body["deviceReason"] != "auto-cuda" {
		t.Errorf("deviceReason = %v, want auto-cuda", body["deviceReason"])
	}
}

func TestVersion(t *testing.T) {
	engine := newEngine()
	engine.GET("/version", endpoint.Version())

	code, body := getJSON(t, engine, "/version")

	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if v, _ := body["version"].(string); v == "" {
		t.Errorf("version = %v, want non-empty", body["version"])
	}
}
