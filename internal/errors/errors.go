package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/jotlit/internal/logger"
)

var hints = []struct {
	target error
	hint   string
}{
	{ErrStorageParse, "run 'jotlit doctor' to check the stored entries"},
	{ErrStorageWrite, "check free disk space and permissions on the store"},
	{ErrNetwork, "prompts fall back to the built-in list while offline"},
}

// Format renders err for the terminal. Errors from the taxonomy get a hint
// on a second line.
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := fmt.Sprintf("Error: %v", err)
	for _, h := range hints {
		if stderrors.Is(err, h.target) {
			return msg + "\nHint: " + h.hint
		}
	}
	return msg
}

// Fatal logs err, prints it to stderr and exits with status 1. A nil err
// returns normally.
func Fatal(err error) {
	if err == nil {
		return
	}
	report(os.Stderr, err)
	os.Exit(1)
}

func report(w io.Writer, err error) {
	logger.Error("Command execution failed", "error", err)
	fmt.Fprintln(w, Format(err))
}
