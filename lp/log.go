package lp

// Logger receives engine chatter. *log.Logger satisfies it.
type Logger interface {
	Print(v ...interface{})
}

type noopLogger struct{}

func (noopLogger) Print(v ...interface{}) {}

// NopLogger returns a Logger discarding everything.
func NopLogger() Logger {
	return noopLogger{}
}
