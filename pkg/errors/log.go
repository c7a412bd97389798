package errors

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	logMu  sync.Mutex
	logOut io.Writer = os.Stderr
)

// SetLogOutput redirects LogHandler output. Pass nil to restore stderr.
func SetLogOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	if w == nil {
		logOut = os.Stderr
	} else {
		logOut = w
	}
}

func logOutput() io.Writer {
	logMu.Lock()
	defer logMu.Unlock()
	return logOut
}

// LogHandler is an ErrorHandler that logs errors to stderr.
type LogHandler struct {
	// Verbose enables detailed output including stack traces.
	Verbose bool
}

// HandleError logs a QuillError.
func (h *LogHandler) HandleError(err *QuillError) {
	if err == nil {
		return
	}
	w := logOutput()
	if h.Verbose {
		fmt.Fprintf(w, "[quill error] %s [%s]", err.Op, err.Kind)
		if err.Ref != "" {
			fmt.Fprintf(w, " ref=%s", err.Ref)
		}
		fmt.Fprintf(w, ": %v\n", err.Err)
		if err.StackTrace != "" {
			fmt.Fprintf(w, "Stack trace:\n%s\n", err.StackTrace)
		}
	} else {
		fmt.Fprintf(w, "[quill error] %s: %v\n", err.Op, err.Err)
	}
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	w := logOutput()
	if err.Op != "" {
		fmt.Fprintf(w, "[quill panic] %s: %v\n", err.Op, err.Value)
	} else {
		fmt.Fprintf(w, "[quill panic] %v\n", err.Value)
	}
	if h.Verbose && err.StackTrace != "" {
		fmt.Fprintf(w, "Stack trace:\n%s\n", err.StackTrace)
	}
}
