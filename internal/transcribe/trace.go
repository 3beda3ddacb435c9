package transcribe

// Trace maps phase and tuning keys to numeric values for one transcription.
// A key is present only if the phase was actually measured; absence is the
// explicit "not measured" value, never a fabricated zero.
type Trace map[string]float64

// Service-side phase keys, measured on every real-backend request.
const (
	// TraceDecodeVideoMs covers data-URL decoding and writing the capture file.
	TraceDecodeVideoMs = "decodeVideoMs"
	// TraceInferenceMs covers the serialized engine call.
	TraceInferenceMs = "inferenceMs"
	// TraceParseOutputMs covers transcript trimming and validation.
	TraceParseOutputMs = "parseOutputMs"
	// TraceModelTotalMs covers the whole transcribe call, ingestion included.
	TraceModelTotalMs = "modelTotalMs"
)

// Engine-reported sub-phase keys, merged in only when the worker reports them.
const (
	TraceLandmarksMs   = "landmarksMs"
	TraceDataLoadMs    = "dataLoadMs"
	TraceEncodeMs      = "encodeMs"
	TraceBeamSearchMs  = "beamSearchMs"
	TracePostprocessMs = "postprocessMs"
)

// Tuning value keys.
const (
	// TraceInputFps is the effective input frame rate, present only when known.
	TraceInputFps = "inputFps"
	// TraceModelVfps is the frame rate the model was trained at.
	TraceModelVfps = "modelVfps"
	// TraceSpeedRate is the temporal resampling factor applied to the input.
	TraceSpeedRate = "speedRate"
)

// engineTraceKeys are the sub-phases a worker may report. Anything else the
// engine emits is dropped rather than forwarded.
var engineTraceKeys = []string{
	TraceLandmarksMs,
	TraceDataLoadMs,
	TraceEncodeMs,
	TraceBeamSearchMs,
	TracePostprocessMs,
}

// MergeEnginePhases copies the recognized engine sub-phase keys from the
// worker-reported map into the trace.
func (t Trace) MergeEnginePhases(phases map[string]float64) {
	for _, key := range engineTraceKeys {
		if v, ok := phases[key]; ok {
			t[key] = v
		}
	}
}
