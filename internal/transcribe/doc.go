// Package transcribe defines the backend interface and common types for
// turning captured lip-reading video into text.
//
// Exactly two backends implement the interface:
//
//   - the stub, a dependency-free echo used for development and as the
//     degraded mode when the real backend cannot start
//   - transcribe/autoavsr: the AutoAVSR visual-speech-recognition engine,
//     reached through a long-lived Python worker
//
// Backend selection happens once at startup through Select; the Loader
// runs it off the request path and publishes the result atomically so the
// HTTP layer can report readiness.
//
// # Usage
//
//	loader := transcribe.NewLoader(log)
//	go loader.Load(ctx, cfg.Model.Backend, autoAVSRFactory)
//	...
//	backend, err := loader.Get() // errors.BackendLoading until settled
package transcribe
