package log

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"
)

// Flaw expands a *flaw.Flaw into structured fields. Any other error is logged
// with the regular error field.
func Flaw(err error) func(e *zerolog.Event) {
	return func(e *zerolog.Event) {
		flawErr := new(flaw.Flaw)
		if !errors.As(err, &flawErr) {
			e.Err(err)
			return
		}

		e.
			Dict("error", errorDict(flawErr.Inner, flawErr.InnerType, flawErr.InnerSyntaxRepr)).
			Array("records", flawRecords(flawErr)).
			Array("joined_errors", flawJoined(flawErr)).
			Array("stack_traces", flawStackTraces(flawErr))
	}
}

func errorDict(message, typeName, syntaxRepr string) *zerolog.Event {
	return zerolog.
		Dict().
		Str("message", message).
		Str("type_name", typeName).
		Str("syntax_representation", syntaxRepr)
}

func flawRecords(f *flaw.Flaw) *zerolog.Array {
	arr := zerolog.Arr()
	for _, v := range f.Records {
		b, err := json.MarshalWithOption(v.Payload, json.UnorderedMap(), json.DisableNormalizeUTF8(), json.DisableHTMLEscape())
		if nil != err {
			payload := zerolog.Dict().Str("error", err.Error()).Str("raw", fmt.Sprintf("%#+v", v.Payload))
			arr.Dict(zerolog.Dict().Str("function", v.Function).Dict("payload", payload))
			continue
		}
		arr.Dict(zerolog.Dict().Str("function", v.Function).RawJSON("payload", b))
	}
	return arr
}

func flawJoined(f *flaw.Flaw) *zerolog.Array {
	arr := zerolog.Arr()
	for _, v := range f.JoinedErrors {
		d := zerolog.Dict().Dict("error", errorDict(v.Message, v.TypeName, v.SyntaxRepr))
		if st := v.CallerStackTrace; nil != st {
			d.Dict("caller_stack_trace", location(st.File, st.Line, st.Function))
		} else {
			d.Stringer("caller_stack_trace", nil)
		}
		arr.Dict(d)
	}
	return arr
}

func flawStackTraces(f *flaw.Flaw) *zerolog.Array {
	arr := zerolog.Arr()
	for _, v := range f.StackTrace {
		arr.Dict(location(v.File, v.Line, v.Function))
	}
	return arr
}

func location(file string, line int, function string) *zerolog.Event {
	return zerolog.
		Dict().
		Str("location", fmt.Sprintf("%s:%d", file, line)).
		Str("function", function)
}
