package media

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// fakeFFprobe writes an executable shell script that stands in for ffprobe.
func fakeFFprobe(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("writing fake ffprobe: %v", err)
	}
	return path
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    float64
		wantErr bool
	}{
		{"ntsc fraction", "30000/1001", 29.97002997002997, false},
		{"whole fraction", "25/1", 25, false},
		{"plain integer", "25", 25, false},
		{"plain decimal", "23.976", 23.976, false},
		{"zero denominator", "0/0", 0, true},
		{"zero rate", "0/1", 0, true},
		{"negative rate", "-5", 0, true},
		{"garbage", "abc", 0, true},
		{"too many parts", "1/2/3", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRate(tt.output)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRate(%q) error = nil, want error", tt.output)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRate(%q) error = %v", tt.output, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseRate(%q) = %v, want %v", tt.output, got, tt.want)
			}
		})
	}
}

func TestProberFPS(t *testing.T) {
	prober := NewProber(fakeFFprobe(t, `echo "30000/1001"`))

	fps, err := prober.FPS(context.Background(), "capture.mp4")
	if err != nil {
		t.Fatalf("FPS() error = %v", err)
	}
	if math.Abs(fps-29.97) > 0.01 {
		t.Errorf("fps = %v, want ~29.97", fps)
	}
}

func TestProberFPSToolFailure(t *testing.T) {
	prober := NewProber(fakeFFprobe(t, "exit 1"))

	if _, err := prober.FPS(context.Background(), "capture.mp4"); err == nil {
		t.Fatal("FPS() error = nil, want tool failure")
	}
}

func TestProberFPSEmptyOutput(t *testing.T) {
	prober := NewProber(fakeFFprobe(t, "true"))

	if _, err := prober.FPS(context.Background(), "capture.mp4"); err == nil {
		t.Fatal("FPS() error = nil, want missing metadata error")
	}
}

func TestNewProberDefaultsBinary(t *testing.T) {
	for _, path := range []string{"", "   "} {
		if got := NewProber(path).binary; got != "ffprobe" {
			t.Errorf("NewProber(%q).binary = %q, want %q", path, got, "ffprobe")
		}
	}
}
