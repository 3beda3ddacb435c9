package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/telepathy/internal/transcribe"
)

// Backends is the loader's view of the transcription backend, satisfied by
// *transcribe.Loader.
type Backends interface {
	// Get returns the published backend, or a retryable loading error while
	// construction is still in flight.
	Get() (transcribe.Transcriber, error)
	// Snapshot returns the lifecycle view for readiness reporting.
	Snapshot() transcribe.Snapshot
}

// HealthResponse is the /health wire shape. Fields settle as the backend
// loads: device details appear when the real backend publishes, the error
// field only after a fallback.
type HealthResponse struct {
	Status       string `json:"status"`
	Ready        bool   `json:"ready"`
	Backend      string `json:"backend,omitempty"`
	Device       string `json:"device,omitempty"`
	DeviceReason string `json:"deviceReason,omitempty"`
	ModelLoadMs  *int64 `json:"modelLoadMs,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Health reports backend readiness: 503 with status "loading" until the
// loader settles, 200 with status "ok" after — including after a stub
// fallback, which is degraded but serving. The handler never touches the
// inference path, so it stays responsive while the engine is busy.
func Health(backends Backends) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := backends.Snapshot()

		if !snap.Ready {
			c.JSON(http.StatusServiceUnavailable, HealthResponse{
				Status: "loading",
			})
			return
		}

		loadMs := snap.LoadMs
		c.JSON(http.StatusOK, HealthResponse{
			Status:       "ok",
			Ready:        true,
			Backend:      snap.Status.Backend,
			Device:       snap.Status.Device,
			DeviceReason: snap.Status.DeviceReason,
			ModelLoadMs:  &loadMs,
			Error:        snap.Err,
		})
	}
}
