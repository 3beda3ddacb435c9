package autoavsr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/skillsenselab/telepathy/internal/errors"
	"github.com/skillsenselab/telepathy/internal/logger"
	"github.com/skillsenselab/telepathy/internal/media"
	"github.com/skillsenselab/telepathy/internal/transcribe"
)

// scratchPrefix names the per-request scratch directories.
const scratchPrefix = "telepathy-avsr-"

// fpsProber is satisfied by media.Prober.
type fpsProber interface {
	FPS(ctx context.Context, videoPath string) (float64, error)
}

// Transcriber runs the AutoAVSR engine: capture ingestion, frame-rate
// normalization, the serialized engine call, and trace assembly.
type Transcriber struct {
	log      *logger.Logger
	pipeline Pipeline
	prober   fpsProber
	modelFPS float64
	timeout  time.Duration

	// inferenceMu serializes engine calls process-wide. Callers block until
	// their turn; order is not guaranteed.
	inferenceMu sync.Mutex
}

// New constructs the backend: resolve the repository and model config, read
// the model frame rate, pick the compute device, and start the engine
// worker. The model load happens before the worker handshake, so this is
// the slow path the Loader keeps off request handling.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Transcriber, transcribe.Status, error) {
	cfg.applyDefaults()
	log = log.WithComponent("autoavsr")

	repo, err := resolveRepo(cfg.Repo)
	if err != nil {
		return nil, transcribe.Status{}, err
	}
	configPath := filepath.Join(repo, cfg.Config)
	if _, err := os.Stat(configPath); err != nil {
		return nil, transcribe.Status{}, fmt.Errorf("missing AutoAVSR config: %s", configPath)
	}

	modelFPS := readModelVideoFPS(configPath)
	resolution := ResolveDevice(ctx, NewTorchProbe(cfg.Python), cfg.Device, cfg.GPUIdx, log)
	log.Info("resolved engine device", logger.Fields(
		logger.FieldDevice, resolution.Device,
		"reason", resolution.Reason,
		"model_vfps", modelFPS,
	))

	pipeline, err := startWorker(ctx, workerParams{
		Python:   cfg.Python,
		Repo:     repo,
		Config:   configPath,
		Detector: cfg.Detector,
		Device:   resolution.Device,
		ExtraEnv: resolution.ExtraEnv,
	}, log)
	if err != nil {
		return nil, transcribe.Status{}, err
	}

	status := transcribe.Status{
		Backend:      transcribe.BackendAutoAVSR,
		Device:       resolution.Device,
		DeviceReason: resolution.Reason,
	}
	return newTranscriber(pipeline, media.NewProber(cfg.FFprobePath), modelFPS, cfg.Timeout, log), status, nil
}

// newTranscriber wires a Transcriber from its parts. Tests inject fakes.
func newTranscriber(pipeline Pipeline, prober fpsProber, modelFPS float64, timeout time.Duration, log *logger.Logger) *Transcriber {
	return &Transcriber{
		log:      log,
		pipeline: pipeline,
		prober:   prober,
		modelFPS: modelFPS,
		timeout:  timeout,
	}
}

// Name returns the backend name.
func (t *Transcriber) Name() string { return transcribe.BackendAutoAVSR }

// Close shuts the engine worker down.
func (t *Transcriber) Close() { t.pipeline.Close() }

// Transcribe runs one request end to end: scratch dir, capture ingestion,
// input frame-rate determination, the serialized engine call, transcript
// validation, and trace assembly. The scratch dir is removed on every path.
func (t *Transcriber) Transcribe(ctx context.Context, req transcribe.Request) (*transcribe.Result, error) {
	modelStart := time.Now()

	if strings.TrimSpace(req.VideoDataURL) == "" {
		return nil, errors.MissingField("videoDataUrl")
	}

	scratch, err := os.MkdirTemp("", scratchPrefix)
	if err != nil {
		return nil, errors.Internal(err)
	}
	defer os.RemoveAll(scratch)

	decodeStart := time.Now()
	videoPath, err := media.WriteVideoFile(req.VideoDataURL, scratch)
	if err != nil {
		return nil, err
	}
	decodeMs := time.Since(decodeStart).Milliseconds()

	inputFPS := req.FPS
	if inputFPS <= 0 {
		probed, perr := t.prober.FPS(ctx, videoPath)
		if perr != nil {
			t.log.Debug("input fps probe failed", logger.ErrorFields("probe_fps", perr))
			probed = 0
		}
		inputFPS = probed
	}
	speedRate := SpeedRate(inputFPS, t.modelFPS)

	inferenceStart := time.Now()
	t.inferenceMu.Lock()
	text, phases, err := t.callEngine(ctx, videoPath, speedRate)
	t.inferenceMu.Unlock()
	if err != nil {
		return nil, err
	}
	inferenceMs := time.Since(inferenceStart).Milliseconds()

	parseStart := time.Now()
	parsed := strings.TrimSpace(text)
	if parsed == "" {
		return nil, errors.Inference("the model produced empty transcription output")
	}
	parseMs := time.Since(parseStart).Milliseconds()

	trace := transcribe.Trace{
		transcribe.TraceDecodeVideoMs: float64(decodeMs),
		transcribe.TraceInferenceMs:   float64(inferenceMs),
		transcribe.TraceParseOutputMs: float64(parseMs),
		transcribe.TraceModelTotalMs:  float64(time.Since(modelStart).Milliseconds()),
	}
	trace.MergeEnginePhases(phases)
	if inputFPS > 0 {
		trace[transcribe.TraceInputFps] = roundTo(inputFPS, 2)
	}
	trace[transcribe.TraceModelVfps] = roundTo(t.modelFPS, 2)
	trace[transcribe.TraceSpeedRate] = roundTo(speedRate, 4)

	return &transcribe.Result{Text: parsed, Trace: trace}, nil
}

func (t *Transcriber) callEngine(ctx context.Context, videoPath string, speedRate float64) (string, map[string]float64, error) {
	// A client disconnect must not abort an inference already in flight;
	// only the configured deadline ends the call early.
	ctx = context.WithoutCancel(ctx)
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return t.pipeline.Infer(ctx, videoPath, speedRate)
}
