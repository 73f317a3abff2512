package errutil

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xeptore/flaw/v8"
	"gopkg.in/yaml.v3"
)

type Flaw struct {
	Inner        string        `yaml:"inner"`
	Records      []Record      `yaml:"records"`
	JoinedErrors []JoinedError `yaml:"joined_errors"`
	StackTrace   []StackTrace  `yaml:"stack_trace"`
}

type Record struct {
	Function string         `yaml:"function"`
	Payload  map[string]any `yaml:"payload"`
}

type JoinedError struct {
	Message          string      `yaml:"message"`
	CallerStackTrace *StackTrace `yaml:"caller_stack_trace"`
}

type StackTrace struct {
	File     string `yaml:"file"`
	Line     int    `yaml:"line"`
	Function string `yaml:"function"`
}

// FlawToYAML renders a flaw as the YAML report written by the CLI.
func FlawToYAML(f *flaw.Flaw) ([]byte, error) {
	out := Flaw{
		Inner:        f.Inner,
		Records:      make([]Record, len(f.Records)),
		JoinedErrors: make([]JoinedError, len(f.JoinedErrors)),
		StackTrace:   make([]StackTrace, len(f.StackTrace)),
	}
	for i, v := range f.Records {
		out.Records[i] = Record{Function: v.Function, Payload: v.Payload}
	}
	for i, v := range f.JoinedErrors {
		out.JoinedErrors[i] = JoinedError{Message: v.Message, CallerStackTrace: nil}
		if st := v.CallerStackTrace; nil != st {
			out.JoinedErrors[i].CallerStackTrace = &StackTrace{File: st.File, Line: st.Line, Function: st.Function}
		}
	}
	for i, v := range f.StackTrace {
		out.StackTrace[i] = StackTrace{File: v.File, Line: v.Line, Function: v.Function}
	}

	var buf bytes.Buffer
	if err := yaml.NewEncoder(&buf).Encode(out); nil != err {
		return nil, flaw.From(fmt.Errorf("failed to encode flaw to yaml: %v", err)).Append(DebugP(err))
	}
	return buf.Bytes(), nil
}

func IsFlaw(err error) bool {
	if flawErr := new(flaw.Flaw); errors.As(err, &flawErr) {
		return true
	}
	return false
}

// AsFlaw returns the flaw inside err, or wraps err into a new one.
func AsFlaw(err error) *flaw.Flaw {
	if f := new(flaw.Flaw); errors.As(err, &f) {
		return f
	}
	return flaw.From(err).Append(DebugP(err))
}
