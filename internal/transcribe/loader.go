package transcribe

import (
	"context"
	"sync"
	"time"

	"github.com/skillsenselab/telepathy/internal/errors"
	"github.com/skillsenselab/telepathy/internal/logger"
)

// Snapshot is the loader's published lifecycle view for health reporting.
type Snapshot struct {
	// Ready reports whether backend construction has settled.
	Ready bool
	// Status describes the backend serving traffic. Zero until ready.
	Status Status
	// LoadMs is how long construction took. Zero until ready.
	LoadMs int64
	// Err is the construction failure that caused a stub fallback. Empty
	// when the configured backend came up.
	Err string
}

// Loader performs the one-time backend construction off the request path
// and publishes the result atomically. Requests that arrive before it
// settles observe the loading state instead of blocking on the model load.
type Loader struct {
	log *logger.Logger

	mu          sync.RWMutex
	ready       bool
	transcriber Transcriber
	status      Status
	loadMs      int64
	loadErr     string
}

// NewLoader creates an unsettled Loader.
func NewLoader(log *logger.Logger) *Loader {
	return &Loader{log: log.WithComponent("loader")}
}

// Load selects and constructs the backend, then publishes it. Run it in a
// goroutine at startup; Get and Snapshot report the loading state until it
// returns.
func (l *Loader) Load(ctx context.Context, backend string, factory Factory) {
	start := time.Now()
	transcriber, status, err := Select(ctx, backend, factory, l.log)
	loadMs := time.Since(start).Milliseconds()

	l.mu.Lock()
	l.transcriber = transcriber
	l.status = status
	l.loadMs = loadMs
	if err != nil {
		l.loadErr = err.Error()
	}
	l.ready = true
	l.mu.Unlock()

	l.log.Info("backend ready", logger.Fields(
		"backend", status.Backend,
		"device", status.Device,
		"device_reason", status.DeviceReason,
		"load_ms", loadMs,
	))
}

// Get returns the published backend. Until the loader settles it fails with
// a retryable backend-loading error.
func (l *Loader) Get() (Transcriber, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.ready {
		return nil, errors.BackendLoading()
	}
	return l.transcriber, nil
}

// Snapshot returns the current lifecycle view.
func (l *Loader) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Snapshot{
		Ready:  l.ready,
		Status: l.status,
		LoadMs: l.loadMs,
		Err:    l.loadErr,
	}
}
