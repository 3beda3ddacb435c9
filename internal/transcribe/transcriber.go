package transcribe

import "context"

// Backend names accepted by the selector.
const (
	// BackendAutoAVSR is the real visual-speech-recognition backend.
	BackendAutoAVSR = "autoavsr"
	// BackendStub is the dependency-free echo backend.
	BackendStub = "stub"
)

// Transcriber is the interface transcription backends implement.
type Transcriber interface {
	// Name returns the backend name reported in response metadata.
	Name() string

	// Transcribe runs one transcription call.
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

// Factory constructs the real backend. It is injected into the selector so
// the selection policy stays independent of construction details.
type Factory func(ctx context.Context) (Transcriber, Status, error)
