// Package errors wraps the standard library errors package with annotated errors.
//
// An annotated error carries a message, an optional cause, [slog.Attr] annotations, and the source location where it
// was created. Use [SlogError] to log the whole chain as a single structured attribute.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
)

// Re-exports so that callers only need to import this package.
var (
	Is     = stderrors.Is
	As     = stderrors.As
	Unwrap = stderrors.Unwrap
	Join   = stderrors.Join
	New    = stderrors.New
)

type sentinelError struct {
	msg string
}

func (e *sentinelError) Error() string {
	return e.msg
}

// NewSentinel creates a sentinel error meant to be declared as a package level variable and compared with [Is].
func NewSentinel(msg string) error {
	return &sentinelError{msg: msg}
}

type annotatedError struct {
	msg   string
	cause error
	attrs []slog.Attr
	// source is file:line where the error was created.
	source string
}

func (e *annotatedError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.cause
}

// Wrap annotates err with msg and attrs. The source location of the caller is recorded.
//
// Wrap(nil, ...) returns an error with only the message so that a forgotten nil check never hides a failure.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return &annotatedError{
		msg:    msg,
		cause:  err,
		attrs:  attrs,
		source: callerSource(),
	}
}

// DecoratePanic converts a recovered panic value into an error pointing at the panicking line.
// It must be called from the deferred function that recovered the panic.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	var cause error
	if err, ok := excp.(error); ok {
		cause = err
	} else {
		cause = fmt.Errorf("%v", excp) //nolint:err113 // the panic value is dynamic
	}
	return &annotatedError{
		msg:    "panic",
		cause:  cause,
		attrs:  nil,
		source: panicSource(),
	}
}

// SlogError returns the error chain as an "error" group containing the message, the source of the innermost
// annotated error, and all annotations collected from the chain.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}

	var (
		annotations []any
		source      string
	)
	collect(err, &annotations, &source)

	group := []any{slog.String("message", err.Error())}
	if source != "" {
		group = append(group, slog.String("source", source))
	}
	if len(annotations) > 0 {
		group = append(group, slog.Group("annotations", annotations...))
	}
	return slog.Group("error", group...)
}

// collect walks the chain including joined errors. The deepest annotated error wins the source location.
func collect(err error, annotations *[]any, source *string) {
	if err == nil {
		return
	}
	if ae, ok := err.(*annotatedError); ok { //nolint:errorlint // walking the chain manually
		for _, attr := range ae.attrs {
			*annotations = append(*annotations, attr)
		}
		if ae.source != "" {
			*source = ae.source
		}
	}
	switch x := err.(type) { //nolint:errorlint // walking the chain manually
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			collect(e, annotations, source)
		}
	case interface{ Unwrap() error }:
		collect(x.Unwrap(), annotations, source)
	}
}

// callerSource reports the caller of the exported constructor that called it.
func callerSource() string {
	_, file, line, ok := runtime.Caller(2) //nolint:mnd // callerSource, Wrap
	if !ok {
		return ""
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

// panicSource finds the frame right after runtime.gopanic, which is the line that panicked.
func panicSource() string {
	const depth = 32
	pcs := make([]uintptr, depth)
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	afterPanic := false
	for {
		frame, more := frames.Next()
		if afterPanic {
			return filepath.Base(frame.File) + ":" + strconv.Itoa(frame.Line)
		}
		if frame.Function == "runtime.gopanic" {
			afterPanic = true
		}
		if !more {
			return ""
		}
	}
}
