package validation

import "go.uber.org/zap"

// Variant classifies a notification for display purposes.
type Variant string

const (
	VariantError   Variant = "error"
	VariantSuccess Variant = "success"
	VariantInfo    Variant = "info"
)

// Notification is a user-visible, non-blocking message, the toast
// equivalent. Failures surface here instead of propagating as errors into
// display state.
type Notification struct {
	Title   string
	Message string
	Variant Variant
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(Notification)

// Notify delegates to the underlying function.
func (fn NotifierFunc) Notify(n Notification) {
	fn(n)
}

// NewZapNotifier returns a Notifier that records notifications on the
// supplied logger, for hosts without a richer display channel.
func NewZapNotifier(logger *zap.Logger) Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return NotifierFunc(func(n Notification) {
		fields := []zap.Field{
			zap.String("title", n.Title),
			zap.String("variant", string(n.Variant)),
		}
		if n.Variant == VariantError {
			logger.Warn(n.Message, fields...)
			return
		}
		logger.Info(n.Message, fields...)
	})
}

// NopNotifier returns a Notifier that discards everything.
func NopNotifier() Notifier {
	return NotifierFunc(func(Notification) {})
}
