package entity

// StackBackend identifies events emitted by this service.
const StackBackend = "backend"

// Telemetry levels.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelFatal = "fatal"
)

// Event is a telemetry notification describing something that happened in a package.
type Event struct {
	Stack   string
	Level   string
	Package string
	Message string
}

// NewEvent builds a backend event.
func NewEvent(level, pkg, msg string) Event {
	return Event{
		Stack:   StackBackend,
		Level:   level,
		Package: pkg,
		Message: msg,
	}
}
