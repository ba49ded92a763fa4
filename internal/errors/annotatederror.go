// Package errors extends the standard library errors with slog annotations and source locations.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

type annotatedError struct {
	err         error
	msg         string
	annotations []slog.Attr
	pc          uintptr
}

func (e *annotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

// NewSentinel returns a comparable error without a source location. Use it for package level error values.
func NewSentinel(msg string) error {
	return stderrors.New(msg) //nolint:err113 // this is the constructor for sentinels.
}

// New returns an error that remembers where it was created.
func New(msg string, attrs ...slog.Attr) error {
	return &annotatedError{err: nil, msg: msg, annotations: attrs, pc: callerPC()}
}

// Wrap annotates err with msg and attrs. The attrs are rendered by [SlogError].
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return &annotatedError{err: err, msg: msg, annotations: attrs, pc: callerPC()}
}

// DecoratePanic converts a recovered value into an error pointing at the panic site.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	return &annotatedError{err: nil, msg: fmt.Sprintf("panic: %v", excp), annotations: nil, pc: panicPC()}
}

// SlogError renders err as an "error" group with message, annotations and the innermost known source location.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Any("error", nil)
	}
	var (
		annotations []any
		pc          uintptr
	)
	walk(err, func(ae *annotatedError) {
		for _, a := range ae.annotations {
			annotations = append(annotations, a)
		}
		if ae.pc != 0 {
			pc = ae.pc
		}
	})
	attrs := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	if pc != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
		attrs = append(attrs, slog.String("source", fmt.Sprintf("%s:%d", frame.File, frame.Line)))
	}
	return slog.Group("error", attrs...)
}

// walk visits every annotatedError in the tree of err, outermost first.
func walk(err error, visit func(*annotatedError)) {
	if err == nil {
		return
	}
	if ae, ok := err.(*annotatedError); ok { //nolint:errorlint // we walk the chain ourselves.
		visit(ae)
	}
	switch u := err.(type) { //nolint:errorlint // same as above.
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			walk(e, visit)
		}
	case interface{ Unwrap() error }:
		walk(u.Unwrap(), visit)
	}
}

func callerPC() uintptr {
	var pcs [1]uintptr
	// Skip runtime.Callers, callerPC and the exported constructor.
	if runtime.Callers(3, pcs[:]) == 0 { //nolint:mnd // see above.
		return 0
	}
	return pcs[0]
}

// panicPC finds the first frame after runtime.gopanic, which is where panic was called.
func panicPC() uintptr {
	pcs := make([]uintptr, 32) //nolint:mnd // deep enough for recover handlers.
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	seenPanic := false
	for {
		frame, more := frames.Next()
		if seenPanic && !strings.HasPrefix(frame.Function, "runtime.") {
			return frame.PC
		}
		if frame.Function == "runtime.gopanic" {
			seenPanic = true
		}
		if !more {
			return 0
		}
	}
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
