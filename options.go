package tinst

import (
	"fmt"

	"go.uber.org/zap"
)

// Option is a function that configures a Manager.
type Option func(*Manager) error

// WithLogger sets the logger used by the manager and its orchestrator.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		m.logger = logger
		m.orchestrator = NewOrchestrator(logger)
		return nil
	}
}

// WithDisposal controls whether Release calls Dispose on shared instances
// implementing Disposable. Disposal is enabled by default.
func WithDisposal(enabled bool) Option {
	return func(m *Manager) error {
		m.dispose = enabled
		return nil
	}
}
