package endpoint

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/skillsenselab/telepathy/internal/errors"
	"github.com/skillsenselab/telepathy/internal/logger"
	"github.com/skillsenselab/telepathy/internal/telemetry"
	"github.com/skillsenselab/telepathy/internal/transcribe"
	"github.com/skillsenselab/telepathy/internal/validation"
)

// TranscribeRequest is the /transcribe request body. Frames is the legacy
// capture path; the real backend requires videoDataUrl. Width and height
// describe the capture and are logged but never affect processing.
type TranscribeRequest struct {
	Frames       []string `json:"frames"`
	FPS          *float64 `json:"fps"`
	Width        *int     `json:"width" validate:"omitempty,gte=0"`
	Height       *int     `json:"height" validate:"omitempty,gte=0"`
	VideoDataURL string   `json:"videoDataUrl"`
}

// TranscribeMeta carries request echo and timing metadata alongside the
// transcript. Frames and FPS are null when the client did not send them.
type TranscribeMeta struct {
	Frames    *int             `json:"frames"`
	FPS       *float64         `json:"fps"`
	Backend   string           `json:"backend"`
	Trace     transcribe.Trace `json:"trace,omitempty"`
	LatencyMs int64            `json:"latencyMs"`
}

// TranscribeResponse is the /transcribe success wire shape.
type TranscribeResponse struct {
	Text string         `json:"text"`
	Meta TranscribeMeta `json:"meta"`
}

// Outcome values for the transcribe.requests counter.
const (
	outcomeOK          = "ok"
	outcomeClientError = "client_error"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
)

// Transcribe runs one transcription request against the published backend.
// The handler owns only transport concerns — decode, validate, dispatch,
// respond — and the error-to-status mapping rides the AppError taxonomy.
func Transcribe(backends Backends, metrics *telemetry.Metrics, log *logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("transcribe")

	return func(c *gin.Context) {
		start := time.Now()
		ctx, span := telemetry.StartSpan(c.Request.Context(), telemetry.SpanTranscribe)
		defer span.End()

		backendName := "none"
		outcome := outcomeError
		metrics.RecordRequestStart(ctx)
		defer func() {
			metrics.RecordRequestEnd(ctx, backendName, outcome, time.Since(start))
		}()

		var req TranscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			appErr := bindError(err)
			outcome = outcomeFor(appErr)
			telemetry.SetSpanError(ctx, appErr)
			RespondWithError(c, appErr)
			return
		}
		if err := validation.Validate(&req); err != nil {
			outcome = outcomeClientError
			telemetry.SetSpanError(ctx, err)
			RespondWithError(c, err)
			return
		}
		if req.Width != nil || req.Height != nil {
			fields := make(map[string]interface{}, 2)
			if req.Width != nil {
				fields["width"] = *req.Width
			}
			if req.Height != nil {
				fields["height"] = *req.Height
			}
			log.WithContext(ctx).Debug("capture dimensions reported", fields)
		}

		backend, err := backends.Get()
		if err != nil {
			outcome = outcomeUnavailable
			telemetry.SetSpanError(ctx, err)
			RespondWithError(c, err)
			return
		}
		backendName = backend.Name()
		telemetry.SetSpanAttribute(ctx, telemetry.AttrBackend, backendName)
		telemetry.SetSpanAttribute(ctx, telemetry.AttrFrameCount, len(req.Frames))

		var fps float64
		if req.FPS != nil {
			fps = *req.FPS
		}
		result, err := backend.Transcribe(ctx, transcribe.Request{
			Frames:       req.Frames,
			FPS:          fps,
			VideoDataURL: req.VideoDataURL,
		})
		if err != nil {
			appErr := apperrors.Wrap(err)
			outcome = outcomeFor(appErr)
			telemetry.SetSpanError(ctx, appErr)
			telemetry.SetSpanAttribute(ctx, telemetry.AttrErrorCode, string(appErr.Code))
			if appErr.HTTPStatus >= http.StatusInternalServerError {
				log.WithContext(ctx).WithError(appErr).Error("transcription failed")
			}
			RespondWithError(c, appErr)
			return
		}

		for key, value := range result.Trace {
			telemetry.SetSpanAttribute(ctx, telemetry.AttrTracePrefix+key, value)
		}
		if ms, ok := result.Trace[transcribe.TraceInferenceMs]; ok {
			metrics.RecordInference(ctx, backendName, time.Duration(ms*float64(time.Millisecond)))
		}

		outcome = outcomeOK
		meta := TranscribeMeta{
			FPS:       req.FPS,
			Backend:   backendName,
			Trace:     result.Trace,
			LatencyMs: time.Since(start).Milliseconds(),
		}
		if n := len(req.Frames); n > 0 {
			meta.Frames = &n
		}
		c.JSON(http.StatusOK, TranscribeResponse{Text: result.Text, Meta: meta})
	}
}

// bindError classifies a request-body read failure. Oversized bodies get
// their own status; everything else reads as malformed JSON.
func bindError(err error) *apperrors.AppError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperrors.New(
			apperrors.ErrCodeInvalidInput,
			fmt.Sprintf("Request body exceeds the %d byte limit.", maxErr.Limit),
			http.StatusRequestEntityTooLarge,
		)
	}
	return apperrors.Validation("Request body must be valid JSON.").WithCause(err)
}

// outcomeFor maps an error's HTTP status onto a metric outcome.
func outcomeFor(appErr *apperrors.AppError) string {
	switch {
	case appErr.HTTPStatus == http.StatusServiceUnavailable:
		return outcomeUnavailable
	case appErr.HTTPStatus >= http.StatusBadRequest && appErr.HTTPStatus < http.StatusInternalServerError:
		return outcomeClientError
	default:
		return outcomeError
	}
}
