package log

// Logger receives trace events. Registry and system call it while holding
// their locks, so Log must be quick and must not call back into them.
type Logger interface {
	Log(event Event)
}

// NoopLogger drops every event.
type NoopLogger struct{}

func (NoopLogger) Log(Event) {}

// OrNoop returns l, or NoopLogger when l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}

var (
	_ Logger = NoopLogger{}
	_ Logger = (*FileLogger)(nil)
	_ Logger = MultiLogger(nil)
)
