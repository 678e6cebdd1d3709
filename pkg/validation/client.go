package validation

import (
	"go.uber.org/zap"
)

// ClientOption customises the validation clients.
type ClientOption func(*clientConfig)

type clientConfig struct {
	notifier Notifier
	logger   *zap.Logger
	sanitize sanitizer
}

// WithNotifier routes user-visible failure notifications.
func WithNotifier(n Notifier) ClientOption {
	return func(c *clientConfig) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithLogger attaches a logger for diagnostics.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *clientConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func newClientConfig(options []ClientOption) clientConfig {
	cfg := clientConfig{
		notifier: NopNotifier(),
		logger:   zap.NewNop(),
		sanitize: newSanitizer(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
