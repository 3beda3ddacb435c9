package transcribe

import (
	"context"
	"fmt"
	"time"
)

// Stub is a backend that echoes the request shape without touching any
// model. It serves development setups and is the degraded mode when the
// real backend cannot start.
type Stub struct{}

// NewStub creates the stub backend.
func NewStub() *Stub { return &Stub{} }

// Name returns the backend name.
func (s *Stub) Name() string { return BackendStub }

// Transcribe reports how many frames arrived and at what rate. It never
// fails on well-formed input.
func (s *Stub) Transcribe(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	fpsInfo := ""
	if req.FPS > 0 {
		fpsInfo = fmt.Sprintf(" at %.1f fps", req.FPS)
	}
	text := fmt.Sprintf("[stub] Received %d frames%s.", len(req.Frames), fpsInfo)
	// The explicit zero records that no engine ran.
	trace := Trace{
		TraceInferenceMs:  0,
		TraceModelTotalMs: float64(time.Since(start).Milliseconds()),
	}
	return &Result{Text: text, Trace: trace}, nil
}
