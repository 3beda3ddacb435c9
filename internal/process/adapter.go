package process

import (
	"context"
	"time"
)

// AdapterConfig configures an Adapter.
type AdapterConfig struct {
	// Name identifies the tool for logs and error messages.
	Name string
	// Timeout bounds each invocation. Zero means no timeout.
	Timeout time.Duration
	// GracePeriod applies to commands that do not set their own.
	GracePeriod time.Duration
}

// Adapter runs commands with a shared timeout and grace-period policy.
// Probes that call the same external tool repeatedly hold one Adapter
// instead of re-stating the policy at each call site.
type Adapter struct {
	config AdapterConfig
}

// NewAdapter creates an Adapter with the given configuration.
func NewAdapter(config AdapterConfig) *Adapter {
	return &Adapter{config: config}
}

// Name returns the configured tool name.
func (a *Adapter) Name() string {
	return a.config.Name
}

// Run executes the command under the adapter's timeout policy.
func (a *Adapter) Run(ctx context.Context, cmd Command) (Result, error) {
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}
	if cmd.GracePeriod <= 0 {
		cmd.GracePeriod = a.config.GracePeriod
	}
	return Run(ctx, cmd)
}
