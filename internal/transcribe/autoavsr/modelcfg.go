package autoavsr

import (
	"math"

	"gopkg.in/ini.v1"
)

// defaultModelVideoFPS is the frame rate AutoAVSR checkpoints are trained
// at when the model config does not say otherwise.
const defaultModelVideoFPS = 25.0

// minSpeedRate keeps pathological input/model ratios from collapsing the
// clip to nothing.
const minSpeedRate = 0.05

// readModelVideoFPS reads `[model] v_fps` from the model's INI config.
// Unreadable files, missing keys, and non-positive values fall back to the
// default rather than failing construction.
func readModelVideoFPS(configPath string) float64 {
	file, err := ini.Load(configPath)
	if err != nil {
		return defaultModelVideoFPS
	}
	fps, err := file.Section("model").Key("v_fps").Float64()
	if err != nil || fps <= 0 {
		return defaultModelVideoFPS
	}
	return fps
}

// SpeedRate computes the temporal resampling factor for an input captured
// at inputFPS against a model trained at modelFPS. An unknown rate on
// either side disables resampling.
func SpeedRate(inputFPS, modelFPS float64) float64 {
	if inputFPS <= 0 || modelFPS <= 0 {
		return 1.0
	}
	rate := inputFPS / modelFPS
	if rate < minSpeedRate {
		return minSpeedRate
	}
	return rate
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
