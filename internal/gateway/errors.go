// Package gateway holds the error vocabulary shared by every consumer of the
// remote data gateway. The operations themselves are declared by the packages
// that consume them.
package gateway

import "errors"

// Error codes reported by the gateway
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailNotConfirmed  = "email_not_confirmed"
	CodeUserExists         = "user_already_exists"
	CodeWeakPassword       = "weak_password"
	CodeUnauthorized       = "unauthorized"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeInvalidToken       = "invalid_token"
	CodeValidation         = "validation_failed"
)

// Error is a failure reported by the gateway itself, as opposed to a
// transport failure. Message is safe to show to the visitor.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError creates a gateway-reported error
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// AsError extracts a gateway-reported error from err
func AsError(err error) (*Error, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

// IsCode reports whether err is a gateway-reported error with the given code
func IsCode(err error, code string) bool {
	gwErr, ok := AsError(err)
	return ok && gwErr.Code == code
}
