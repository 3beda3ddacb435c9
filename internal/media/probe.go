package media

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/skillsenselab/telepathy/internal/process"
)

// probeTimeout bounds the metadata probe so a damaged file cannot stall a
// transcription request.
const probeTimeout = 3 * time.Second

// Prober reads stream metadata from video files using ffprobe.
type Prober struct {
	binary  string
	adapter *process.Adapter
}

// NewProber creates a Prober using the given ffprobe binary. An empty path
// falls back to resolving "ffprobe" on PATH.
func NewProber(ffprobePath string) *Prober {
	binary := strings.TrimSpace(ffprobePath)
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{
		binary: binary,
		adapter: process.NewAdapter(process.AdapterConfig{
			Name:    "ffprobe",
			Timeout: probeTimeout,
		}),
	}
}

// FPS returns the frame rate of the first video stream in the file.
func (p *Prober) FPS(ctx context.Context, videoPath string) (float64, error) {
	result, err := p.adapter.Run(ctx, process.Command{
		Binary: p.binary,
		Args: []string{
			"-v", "error",
			"-select_streams", "v:0",
			"-show_entries", "stream=r_frame_rate",
			"-of", "default=noprint_wrappers=1:nokey=1",
			videoPath,
		},
	})
	if err != nil {
		return 0, err
	}
	output := strings.TrimSpace(string(result.Stdout))
	if output == "" {
		return 0, fmt.Errorf("ffprobe: no video stream metadata for %s", videoPath)
	}
	return ParseRate(output)
}

// ParseRate parses an ffprobe frame rate, either a fraction like
// "30000/1001" or a plain decimal like "25". The rate must be positive.
func ParseRate(output string) (float64, error) {
	var rate float64
	parts := strings.Split(output, "/")
	switch len(parts) {
	case 1:
		val, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, fmt.Errorf("ffprobe: unparseable frame rate %q", output)
		}
		rate = val
	case 2:
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			return 0, fmt.Errorf("ffprobe: unparseable frame rate %q", output)
		}
		if den == 0 {
			return 0, fmt.Errorf("ffprobe: zero denominator in frame rate %q", output)
		}
		rate = num / den
	default:
		return 0, fmt.Errorf("ffprobe: unparseable frame rate %q", output)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("ffprobe: non-positive frame rate %q", output)
	}
	return rate, nil
}
