package transcribe

import (
	"context"
	"fmt"
	"strings"

	"github.com/skillsenselab/telepathy/internal/logger"
)

// Select chooses and constructs the backend named in configuration. The
// service never refuses to start over a backend problem: any construction
// failure or unrecognized name degrades to the stub with a warning, and the
// returned error preserves the cause for health reporting. The returned
// Status always reflects the backend actually serving traffic.
func Select(ctx context.Context, backend string, factory Factory, log *logger.Logger) (Transcriber, Status, error) {
	name := strings.ToLower(strings.TrimSpace(backend))
	if name == "" {
		name = BackendAutoAVSR
	}

	switch name {
	case BackendStub:
		return NewStub(), Status{Backend: BackendStub}, nil

	case BackendAutoAVSR:
		transcriber, status, err := factory(ctx)
		if err != nil {
			log.WithError(err).Warn("autoavsr backend failed to initialize, serving stub")
			return NewStub(), Status{Backend: BackendStub}, err
		}
		return transcriber, status, nil

	default:
		err := fmt.Errorf("unknown backend %q", name)
		log.Warn("unknown backend configured, serving stub", logger.Fields("backend", name))
		return NewStub(), Status{Backend: BackendStub}, err
	}
}
