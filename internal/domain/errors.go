package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenInvalid is the uniform redemption failure: callers cannot tell
	// a missing token from a used or expired one.
	ErrTokenInvalid = errors.New("invalid or expired token")
)

// ValidationError reports bad or missing client input (HTTP 400).
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Msg
}

// InvalidStateError reports an operation not permitted for the order's
// current status (HTTP 400).
type InvalidStateError struct {
	Op     string
	Status OrderStatus
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("%s not allowed for order in status %q", e.Op, e.Status)
}

// ConfigurationError reports a required deployment setting that is absent.
// It is raised before any network call so a half-configured provider never
// gets partway through a request.
type ConfigurationError struct {
	Key string
}

func (e ConfigurationError) Error() string {
	return "missing required configuration: " + e.Key
}

// GatewayError carries a failure payload reported by an upstream payment or
// email provider, as opposed to a transport-level error.
type GatewayError struct {
	Provider string
	Message  string
}

func (e GatewayError) Error() string {
	return e.Provider + ": " + e.Message
}

// UploadError reports a blob store write rejection.
type UploadError struct {
	Key string
	Err error
}

func (e UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Key, e.Err)
}

func (e UploadError) Unwrap() error { return e.Err }
