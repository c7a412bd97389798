// Package errors provides structured error handling for the Quill runtime core.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindStaleHandle indicates access through a handle whose slot was removed.
	KindStaleHandle
	// KindTypeMismatch indicates a handle was borrowed as the wrong type.
	KindTypeMismatch
	// KindDoubleRemove indicates the same handle was removed twice.
	KindDoubleRemove
	// KindRuntimeGone indicates an operation addressed a dropped runtime.
	KindRuntimeGone
	// KindConfig indicates a configuration loading or validation error.
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindStaleHandle:
		return "stale-handle"
	case KindTypeMismatch:
		return "type-mismatch"
	case KindDoubleRemove:
		return "double-remove"
	case KindRuntimeGone:
		return "runtime-gone"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of this kind abort execution. Every kind in
// the misuse taxonomy is fatal; only configuration errors are recoverable.
func (k ErrorKind) Fatal() bool {
	return k != KindConfig && k != KindUnknown
}

// QuillError represents a structured error in the Quill runtime core.
type QuillError struct {
	// Op is the operation that failed (e.g., "slot.Table.Remove").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Ref describes the offending handle or runtime id, if applicable.
	Ref string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *QuillError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s [%s] ref=%s: %v", e.Op, e.Kind, e.Ref, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *QuillError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "scope.Child").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ConfigError represents a failure to load or validate configuration.
type ConfigError struct {
	// Path is the file that failed to load, if any.
	Path string
	// Field is the configuration field at fault, if known.
	Field string
	// Err is the underlying error.
	Err error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Field != "" && e.Path != "":
		return fmt.Sprintf("invalid %s in %s: %v", e.Field, e.Path, e.Err)
	case e.Path != "":
		return fmt.Sprintf("failed to load %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ErrorHandler receives errors reported by the Quill core.
type ErrorHandler interface {
	// HandleError is called when an error occurs, including fatal misuse
	// errors immediately before the core panics with them.
	HandleError(err *QuillError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
