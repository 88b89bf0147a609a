package cmd

import (
	"errors"
	"fmt"
)

// SilentExitError makes the command exit with Code without printing an
// error, e.g. when a formula could not be mixed but the output was written.
type SilentExitError struct {
	Code int
}

func (e *SilentExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

func NewSilentExit(code int) *SilentExitError {
	return &SilentExitError{Code: code}
}

// IsSilentExit returns the exit code carried by err, if any.
func IsSilentExit(err error) (int, bool) {
	var se *SilentExitError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}
