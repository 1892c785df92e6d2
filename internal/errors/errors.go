package errors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error type mapped to process exit codes.
type Code int

const (
	CodeSuccess               Code = 0
	CodeInternal              Code = 1
	CodeInvalidArguments      Code = 2
	CodeUnknownTool           Code = 3
	CodeInvalidAmount         Code = 4
	CodeBlocked               Code = 16
	CodeUnresolvableToken     Code = 20
	CodePriceUnavailable      Code = 21
	CodeInsufficientLiquidity Code = 22
	CodeGasEstimationFailed   Code = 23
	CodeUnsupportedChain      Code = 24
	CodeNetwork               Code = 30
	CodeRPC                   Code = 31
)

var kinds = map[Code]string{
	CodeInternal:              "InternalError",
	CodeInvalidArguments:      "InvalidArguments",
	CodeUnknownTool:           "UnknownTool",
	CodeInvalidAmount:         "InvalidAmount",
	CodeBlocked:               "ToolBlocked",
	CodeUnresolvableToken:     "UnresolvableToken",
	CodePriceUnavailable:      "PriceUnavailable",
	CodeInsufficientLiquidity: "InsufficientLiquidity",
	CodeGasEstimationFailed:   "GasEstimationFailed",
	CodeUnsupportedChain:      "UnsupportedChain",
	CodeNetwork:               "NetworkError",
	CodeRPC:                   "RpcError",
}

// Kind returns the stable name reported to tool callers.
func (c Code) Kind() string {
	if kind, ok := kinds[c]; ok {
		return kind
	}
	return kinds[CodeInternal]
}

// Error is a typed error that carries a stable error code.
type Error struct {
	Code    Code
	Message string
	// Field names the offending argument for validation failures.
	Field   string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// WithField records the argument that failed validation.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithDetail attaches one structured detail to the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf returns the code of err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if err == nil {
		return CodeSuccess
	}
	if typed, ok := As(err); ok {
		return typed.Code
	}
	return CodeInternal
}

func ExitCode(err error) int {
	return int(CodeOf(err))
}
