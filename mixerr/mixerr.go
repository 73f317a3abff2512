// Package mixerr defines the coded errors returned by the mixing engine.
// Callers match them by code with errors.Is against the exported sentinels,
// or extract the code with CodeOf.
package mixerr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeAnalysis                 Code = "DJ_MIX_ANALYSIS_ERROR"
	CodeTransitionPlan           Code = "TRANSITION_PLAN_ERROR"
	CodeSet                      Code = "DJ_SET_ERROR"
	CodeSetPlanning              Code = "DJ_SET_PLANNING_ERROR"
	CodeNoSession                Code = "DJ_NO_SESSION"
	CodeNoCurrentSong            Code = "DJ_NO_CURRENT_SONG"
	CodeNoAnalysis               Code = "DJ_NO_ANALYSIS"
	CodeQueue                    Code = "DJ_QUEUE_ERROR"
	CodeDuplicateSong            Code = "DUPLICATE_SONG"
	CodeAutoMixNoCandidates      Code = "DJ_AUTO_MIX_NO_CANDIDATES"
	CodeAutoMixInsufficientSongs Code = "DJ_AUTO_MIX_INSUFFICIENT_SONGS"
	CodeAutoMixInsufficientFilt  Code = "DJ_AUTO_MIX_INSUFFICIENT_FILTERED"
)

var (
	ErrAnalysis                 = &Error{Code: CodeAnalysis}
	ErrTransitionPlan           = &Error{Code: CodeTransitionPlan}
	ErrSet                      = &Error{Code: CodeSet}
	ErrSetPlanning              = &Error{Code: CodeSetPlanning}
	ErrNoSession                = &Error{Code: CodeNoSession}
	ErrNoCurrentSong            = &Error{Code: CodeNoCurrentSong}
	ErrNoAnalysis               = &Error{Code: CodeNoAnalysis}
	ErrQueue                    = &Error{Code: CodeQueue}
	ErrDuplicateSong            = &Error{Code: CodeDuplicateSong}
	ErrAutoMixNoCandidates      = &Error{Code: CodeAutoMixNoCandidates}
	ErrAutoMixInsufficientSongs = &Error{Code: CodeAutoMixInsufficientSongs}
	ErrAutoMixInsufficientFilt  = &Error{Code: CodeAutoMixInsufficientFilt}
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: nil}
}

func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	} else {
		msg = string(e.Code) + ": " + msg
	}
	if nil != e.Err {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error) //nolint:errorlint
	return ok && t.Code == e.Code
}

// CodeOf returns the code of the outermost *Error in err's chain, or "".
func CodeOf(err error) Code {
	if e := new(Error); errors.As(err, &e) {
		return e.Code
	}
	return ""
}
