package transcribe

// Request holds the inputs for a single transcription call.
type Request struct {
	// Frames are data-URL encoded video frames, oldest first. Legacy capture
	// clients send individual frames; backends may consume only their count.
	Frames []string `json:"frames"`
	// FPS is the capture frame rate reported by the client. Zero or negative
	// means unknown.
	FPS float64 `json:"fps,omitempty"`
	// VideoDataURL is the full capture clip as a base64 data URL.
	VideoDataURL string `json:"videoDataUrl,omitempty"`
}

// Result holds the outcome of a transcription call.
type Result struct {
	// Text is the transcribed utterance.
	Text string `json:"text"`
	// Trace carries per-phase timing and tuning metadata.
	Trace Trace `json:"trace,omitempty"`
}

// Status describes the backend that is serving traffic. It feeds health
// reporting and response metadata.
type Status struct {
	// Backend is the name of the backend actually serving requests, which
	// may differ from the configured one after a fallback.
	Backend string `json:"backend"`
	// Device is the runtime compute device of the real backend (e.g. "cpu",
	// "cuda:0", "mps"). Empty for the stub.
	Device string `json:"device,omitempty"`
	// DeviceReason explains how the device was chosen (e.g. "user-requested",
	// "auto-cuda", "torch-unavailable"). Empty for the stub.
	DeviceReason string `json:"deviceReason,omitempty"`
}
