package utils

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/logging"
)

// WrapIfNotNil prefixes err with the calling function's name and any extra context.
func WrapIfNotNil(err error, context ...string) error {
	if err == nil {
		return nil
	}

	callerName := "unknown"
	if pc, _, _, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			callerName = fn.Name()
		}
	}

	parts := append([]string{callerName}, context...)
	return fmt.Errorf("%s: %w", strings.Join(parts, " - "), err)
}

// LogPanic logs a recovered panic value and the goroutine's stack. Call it from the deferred
// recover function.
func LogPanic(log logging.Logger, title string, recovered any) {
	log.Errorf("panic in %s: %v", title, recovered)
	for _, frame := range StackFrames(3) {
		log.Errorf("     *** %s", frame)
	}
}

// StackFrames formats the stack as "function (file:line)", skipping runtime internals.
func StackFrames(skip int) []string {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var out []string
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			out = append(out, fmt.Sprintf("%s (%s:%d)", frame.Function, frame.File, frame.Line))
		}
		if !more {
			break
		}
	}
	return out
}
