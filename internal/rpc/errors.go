package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/nerrad567/doorsense/internal/device"
	"github.com/nerrad567/doorsense/internal/entrance"
	"github.com/nerrad567/doorsense/internal/user"
)

// Code is a tRPC error code.
type Code string

// Error codes returned to clients.
const (
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodeMethodNotSupported Code = "METHOD_NOT_SUPPORTED"
	CodeInternal           Code = "INTERNAL_SERVER_ERROR"
)

// genericInternalMessage is shown to clients instead of internal error text.
const genericInternalMessage = "Internal server error"

// HTTPStatus returns the HTTP status tRPC associates with the code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeMethodNotSupported:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// JSONRPCCode returns the numeric code tRPC places in error.code.
func (c Code) JSONRPCCode() int {
	switch c {
	case CodeBadRequest:
		return -32600
	case CodeNotFound:
		return -32004
	case CodeConflict:
		return -32009
	case CodeMethodNotSupported:
		return -32005
	default:
		return -32603
	}
}

// Error is a client-visible procedure failure.
type Error struct {
	Code    Code
	Message string
	// Err is the underlying cause. It is never sent to clients.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an Error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ToError maps any error returned by a procedure onto an Error.
// Unrecognised errors become INTERNAL_SERVER_ERROR with a generic message.
func ToError(err error) *Error {
	if err == nil {
		return nil
	}

	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	switch {
	case errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, device.ErrDeviceNotFound):
		return &Error{Code: CodeNotFound, Message: err.Error(), Err: err}

	case errors.Is(err, user.ErrEmailExists):
		return &Error{Code: CodeConflict, Message: err.Error(), Err: err}

	case errors.Is(err, user.ErrInvalidName),
		errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, device.ErrInvalidName),
		errors.Is(err, device.ErrInvalidStatus),
		errors.Is(err, entrance.ErrInvalidDuration),
		errors.Is(err, entrance.ErrInvalidLimit),
		errors.Is(err, entrance.ErrInvalidWindow):
		return &Error{Code: CodeBadRequest, Message: err.Error(), Err: err}
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return &Error{Code: CodeBadRequest, Message: describeValidation(validationErrs), Err: err}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &Error{Code: CodeBadRequest, Message: "invalid input: " + err.Error(), Err: err}
	}

	return &Error{Code: CodeInternal, Message: genericInternalMessage, Err: err}
}

// describeValidation turns validator output into a short client message.
func describeValidation(errs validator.ValidationErrors) string {
	fe := errs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min", "gte", "gt":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte", "lt":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
