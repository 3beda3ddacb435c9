// Package autoavsr implements the AutoAVSR visual-speech-recognition
// backend. The model runs in a long-lived Python worker; this package owns
// device resolution, input frame-rate normalization, the worker protocol,
// and per-request tracing.
package autoavsr

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultConfigPath = "configs/LRS3_V_WER19.1.ini"
	defaultDetector   = "mediapipe"
	defaultDevice     = "mps"
	defaultPython     = "python3"

	// bundledRepoPath is where a vendored pipeline checkout lives relative
	// to the working directory.
	bundledRepoPath = "third_party/Visual_Speech_Recognition_for_Multiple_Languages"
)

// Config holds configuration for the AutoAVSR backend.
type Config struct {
	// Repo is the checkout of the AutoAVSR pipeline repository. Empty means
	// autodetect the bundled third_party checkout.
	Repo string `json:"repo" yaml:"repo"`
	// Config is the model INI path, relative to the repository.
	Config string `json:"config" yaml:"config"`
	// Detector is the face detector the pipeline should use.
	Detector string `json:"detector" yaml:"detector"`
	// Device is the requested compute device preference ("auto", "cpu",
	// "mps", or a cuda device string).
	Device string `json:"device" yaml:"device"`
	// GPUIdx is the CUDA device index used by auto selection. Negative
	// disables auto CUDA. Zero is a valid index, so callers must supply the
	// -1 sentinel explicitly when they mean "unset".
	GPUIdx int `json:"gpu_idx" yaml:"gpu_idx"`
	// Python is the interpreter that runs the engine worker and the torch
	// probe.
	Python string `json:"python" yaml:"python"`
	// FFprobePath locates ffprobe for the input frame-rate probe.
	FFprobePath string `json:"ffprobe_path" yaml:"ffprobe_path"`
	// Timeout bounds each engine call. Zero disables the deadline.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

func (c *Config) applyDefaults() {
	if c.Config == "" {
		c.Config = defaultConfigPath
	}
	if c.Detector == "" {
		c.Detector = defaultDetector
	}
	if c.Device == "" {
		c.Device = defaultDevice
	}
	if c.Python == "" {
		c.Python = defaultPython
	}
}

// resolveRepo returns the absolute pipeline repository path, falling back
// to the bundled checkout when none is configured.
func resolveRepo(configured string) (string, error) {
	repo := configured
	if repo == "" {
		if _, err := os.Stat(bundledRepoPath); err != nil {
			return "", fmt.Errorf("autoavsr repository is not configured and no bundled checkout exists at %s", bundledRepoPath)
		}
		repo = bundledRepoPath
	}
	abs, err := filepath.Abs(expandHome(repo))
	if err != nil {
		return "", fmt.Errorf("resolving autoavsr repository path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("autoavsr repository not found at %s", abs)
	}
	return abs, nil
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
