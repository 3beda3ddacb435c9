package autoavsr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/skillsenselab/telepathy/internal/logger"
	"github.com/skillsenselab/telepathy/internal/process"
)

// torchProbeTimeout bounds the torch availability probe. Importing torch in
// a cold interpreter can take tens of seconds.
const torchProbeTimeout = 30 * time.Second

// torchProbeScript prints a one-line JSON availability report, or exits
// non-zero when torch cannot be imported.
const torchProbeScript = `
import json
try:
    import torch
    cuda = bool(torch.cuda.is_available())
    backends = getattr(torch, "backends", None)
    mps_backend = getattr(backends, "mps", None)
    mps = bool(mps_backend is not None and mps_backend.is_available())
    print(json.dumps({"cuda": cuda, "mps": mps}))
except Exception:
    raise SystemExit(3)
`

// Availability reports which torch acceleration backends the engine's
// Python environment can use.
type Availability struct {
	CUDA bool `json:"cuda"`
	MPS  bool `json:"mps"`
}

// DeviceProbe checks torch availability in the engine's environment.
type DeviceProbe interface {
	// Probe returns the availability report. The second return is false
	// when torch cannot be imported at all.
	Probe(ctx context.Context) (Availability, bool)
}

// TorchProbe implements DeviceProbe by running a short script in the
// engine's Python interpreter.
type TorchProbe struct {
	python  string
	adapter *process.Adapter
}

// NewTorchProbe creates a probe using the given interpreter.
func NewTorchProbe(python string) *TorchProbe {
	if strings.TrimSpace(python) == "" {
		python = defaultPython
	}
	return &TorchProbe{
		python: python,
		adapter: process.NewAdapter(process.AdapterConfig{
			Name:    "torch-probe",
			Timeout: torchProbeTimeout,
		}),
	}
}

// Probe runs the availability script. Any failure (missing interpreter,
// timeout, non-zero exit, unparseable output) reads as torch unavailable.
func (p *TorchProbe) Probe(ctx context.Context) (Availability, bool) {
	result, err := p.adapter.Run(ctx, process.Command{
		Binary: p.python,
		Args:   []string{"-c", torchProbeScript},
	})
	if err != nil {
		return Availability{}, false
	}
	lines := strings.Split(strings.TrimSpace(string(result.Stdout)), "\n")
	var avail Availability
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &avail); err != nil {
		return Availability{}, false
	}
	return avail, true
}

// Resolution is the outcome of device selection.
type Resolution struct {
	// Device is the resolved torch device string.
	Device string
	// Reason explains how the device was chosen.
	Reason string
	// ExtraEnv is appended to the engine environment.
	ExtraEnv []string
}

// ResolveDevice picks the runtime compute device. User requests are honored
// when the hardware backs them and otherwise fall through to automatic
// selection, which only enables CUDA when a GPU index is configured and
// always prefers CPU on apple silicon.
func ResolveDevice(ctx context.Context, probe DeviceProbe, requested string, gpuIdx int, log *logger.Logger) Resolution {
	avail, ok := probe.Probe(ctx)
	if !ok {
		return Resolution{Device: "cpu", Reason: "torch-unavailable"}
	}

	req := strings.ToLower(strings.TrimSpace(requested))
	if req != "" && req != "auto" {
		switch {
		case strings.HasPrefix(req, "cuda"):
			if avail.CUDA {
				return Resolution{Device: req, Reason: "user-requested"}
			}
			log.Warn("requested device needs CUDA, which is unavailable", logger.Fields("device", req))
		case req == "mps":
			if avail.MPS {
				return Resolution{
					Device:   "mps",
					Reason:   "user-requested",
					ExtraEnv: []string{"PYTORCH_ENABLE_MPS_FALLBACK=1"},
				}
			}
			log.Warn("requested device mps, but MPS is unavailable")
		case req == "cpu":
			return Resolution{Device: "cpu", Reason: "user-requested"}
		default:
			log.Warn("unknown device requested, using auto selection", logger.Fields("device", req))
		}
	}

	if avail.CUDA && gpuIdx >= 0 {
		return Resolution{Device: fmt.Sprintf("cuda:%d", gpuIdx), Reason: "auto-cuda"}
	}
	if avail.MPS {
		return Resolution{Device: "cpu", Reason: "auto-cpu-on-apple-silicon"}
	}
	return Resolution{Device: "cpu", Reason: "auto-cpu"}
}
