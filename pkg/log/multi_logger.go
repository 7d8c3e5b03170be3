package log

// MultiLogger hands each event to every logger in order.
type MultiLogger []Logger

// NewMultiLogger drops nil entries from loggers.
func NewMultiLogger(loggers ...Logger) MultiLogger {
	var m MultiLogger
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	return m
}

func (m MultiLogger) Log(event Event) {
	for _, l := range m {
		l.Log(event)
	}
}
