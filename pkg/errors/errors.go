package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind buckets an error into the retry taxonomy the orchestrator and the
// response layer act on.
type Kind string

const (
	KindValidation    Kind = "validation"     // malformed input, no retry
	KindNotFound      Kind = "not_found"      // session/item absent, no retry
	KindLimitExceeded Kind = "limit_exceeded" // budget/selection ceiling, no retry
	KindProvider      Kind = "provider"       // generation backend failure, handled internally
	KindPersistence   Kind = "persistence"    // storage failure, retryable by caller
	KindInternal      Kind = "internal"
)

// Retryable reports whether the caller should be told a retry may help.
func (k Kind) Retryable() bool {
	return k == KindPersistence || k == KindInternal
}

type CustomizedError struct {
	cause   error
	message string
	trace   []string
	wrap    error
	kind    Kind
	code    int
	data    map[string]interface{}
}

func New(trace, message string, err error) *CustomizedError {
	return &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		kind:    KindInternal,
		code:    http.StatusInternalServerError,
	}
}

func (e *CustomizedError) WithData(data map[string]interface{}) *CustomizedError {
	e.data = data
	return e
}

func (e *CustomizedError) Data() map[string]interface{} {
	return e.data
}

func (e *CustomizedError) Code(c int) *CustomizedError {
	e.code = c
	return e
}

func (e *CustomizedError) GetCode() int {
	return e.code
}

func (e *CustomizedError) Kind(k Kind) *CustomizedError {
	e.kind = k
	return e
}

func (e *CustomizedError) GetKind() Kind {
	return e.kind
}

func (e *CustomizedError) Trace(trace string) *CustomizedError {
	e.trace = append(e.trace, trace)
	return e
}

func Wrap(err error, trace, message string) *CustomizedError {
	ce := &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		wrap:    err,
		kind:    KindInternal,
		code:    http.StatusInternalServerError,
	}
	if income, ok := err.(*CustomizedError); ok {
		ce.code = income.code
		ce.kind = income.kind
	}
	return ce
}

func Trace(trace string, err error) *CustomizedError {
	if ce, ok := err.(*CustomizedError); ok {
		ce.trace = append(ce.trace, trace)
		return ce
	}
	return Wrap(err, trace, err.Error())
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	ce, ok := err.(*CustomizedError)
	if !ok {
		return false
	}
	if ce.kind == kind {
		return true
	}
	if ce.wrap != nil {
		return Is(ce.wrap, kind)
	}
	return false
}

func (e *CustomizedError) Message() string {
	if e.message == "" {
		return e.cause.Error()
	}
	return e.message
}

func (e *CustomizedError) Error() string {
	otherDetails := `""`
	if ce, ok := e.wrap.(*CustomizedError); ok {
		otherDetails = ce.Error()
	} else if e.wrap != nil {
		otherDetails = fmt.Sprint("\"", e.wrap.Error(), "\"")
	}
	return fmt.Sprintf(`{"trace":"%s","kind":"%s","code":%d,"msg":"%s","error":"%v","wrapd":%s}`,
		strings.Join(e.trace, "->"), e.kind, e.code, e.message, e.cause, otherDetails)
}
