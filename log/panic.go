package log

import (
	"bytes"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// skippedStackLines covers the goroutine header plus the debug.Stack, Panic
// and deferred recover frames.
const skippedStackLines = 9

// Panic records a recovered value and the stack of the recovering goroutine.
func Panic(recovered any) func(e *zerolog.Event) {
	return func(e *zerolog.Event) {
		dict := zerolog.Dict().Str("type", fmt.Sprintf("%T", recovered))
		if err, ok := recovered.(error); ok {
			dict.Str("message", err.Error())
		} else {
			dict.Interface("content", recovered)
		}

		lines := bytes.Split(debug.Stack(), []byte("\n"))
		if len(lines) > skippedStackLines {
			lines = lines[skippedStackLines:]
		}
		e.Dict("panic", dict.Bytes("stack_traces", bytes.Join(lines, []byte("\n"))))
	}
}
