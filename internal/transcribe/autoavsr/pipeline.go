package autoavsr

import "context"

// Pipeline is the seam to the inference engine. The production
// implementation talks to a long-lived Python worker; tests substitute
// fakes.
type Pipeline interface {
	// Infer transcribes the video at videoPath with the given temporal
	// resampling factor applied. It returns the raw transcript and any
	// engine-reported phase timings.
	Infer(ctx context.Context, videoPath string, speedRate float64) (string, map[string]float64, error)

	// Close shuts the engine down and releases its resources.
	Close()
}
