package authentication

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a missing or invalid authentication setting
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("authentication: %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("authentication: %s is not set", e.Key)
}

// ResolutionError reports an identifier that names no known provider
type ResolutionError struct {
	Identifier string
	Err        error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication: provider %q not found: %v", e.Identifier, e.Err)
	}
	return fmt.Sprintf("authentication: provider %q not found", e.Identifier)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// ConformanceError reports a resolved implementation that lacks the required capability
type ConformanceError struct {
	Identifier string
	Type       string
	Capability string
}

func (e *ConformanceError) Error() string {
	return fmt.Sprintf("authentication: %s (%s) does not implement %s", e.Identifier, e.Type, e.Capability)
}

// InstantiationError reports a provider whose own construction failed.
// The original message is kept in the error text.
type InstantiationError struct {
	Identifier string
	Err        error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("authentication: %s instantiate failed: %v", e.Identifier, e.Err)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}

// AuthenticationFailure is the runtime outcome for rejected credentials.
// Err optionally carries one of the package sentinels for callers that
// want to tell a wrong password from an unreachable backend.
type AuthenticationFailure struct {
	User   string
	Reason string
	Err    error
}

func (e *AuthenticationFailure) Error() string {
	return fmt.Sprintf("authentication failed for user %q: %s", e.User, e.Reason)
}

func (e *AuthenticationFailure) Unwrap() error {
	return e.Err
}

// Reject builds an AuthenticationFailure for user. The reason defaults to err's text.
func Reject(user, reason string, err error) *AuthenticationFailure {
	if reason == "" && err != nil {
		reason = err.Error()
	}
	return &AuthenticationFailure{User: user, Reason: reason, Err: err}
}

// IsAuthenticationFailure reports whether err is a rejected-credentials outcome
func IsAuthenticationFailure(err error) bool {
	var failure *AuthenticationFailure
	return errors.As(err, &failure)
}

// IsStartupError reports whether err is one of the construction-time error kinds
func IsStartupError(err error) bool {
	var (
		configErr      *ConfigurationError
		resolutionErr  *ResolutionError
		conformanceErr *ConformanceError
		instantiateErr *InstantiationError
	)
	return errors.As(err, &configErr) ||
		errors.As(err, &resolutionErr) ||
		errors.As(err, &conformanceErr) ||
		errors.As(err, &instantiateErr)
}
