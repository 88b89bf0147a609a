package feedmix

import "github.com/costela/feedmix/lp"

// Logger receives diagnostics from formulas and their solvers. It is
// satisfied by *log.Logger.
type Logger = lp.Logger

type noopLogger struct{}

func (noopLogger) Print(v ...interface{}) {}
