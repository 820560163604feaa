// Package apperror defines the error kinds that travel from the token
// exchange and the embed resolver up to the HTTP boundary.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ConfigurationError reports a missing or malformed configuration value.
type ConfigurationError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %s: %v", e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewConfigurationError создает ошибку конфигурации для ключа key
func NewConfigurationError(key, reason string, err error) *ConfigurationError {
	return &ConfigurationError{Key: key, Reason: reason, Err: err}
}

// AuthenticationError reports that the identity provider did not issue an
// access token.
type AuthenticationError struct {
	Tenant string
	Err    error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed for tenant %q: %v", e.Tenant, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// Kind classifies a failed reporting API call.
type Kind string

const (
	KindNotFound  Kind = "not_found"
	KindForbidden Kind = "forbidden"
	KindTransient Kind = "transient"
	KindUnknown   Kind = "unknown"
)

// UpstreamAPIError reports a failed call to the reporting API.
type UpstreamAPIError struct {
	Kind       Kind
	Operation  string
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	Err        error
}

func (e *UpstreamAPIError) Error() string {
	msg := fmt.Sprintf("%s failed (%s", e.Operation, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(", HTTP %d", e.StatusCode)
	}
	if e.Code != "" {
		msg += ", " + e.Code
	}
	msg += ")"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamAPIError) Unwrap() error { return e.Err }

// KindForStatus maps an HTTP status returned by the reporting API to a Kind.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return KindTransient
	default:
		return KindUnknown
	}
}

// KindOf returns the Kind of an UpstreamAPIError in err's chain, or "" if
// there is none.
func KindOf(err error) Kind {
	var upstream *UpstreamAPIError
	if errors.As(err, &upstream) {
		return upstream.Kind
	}
	return ""
}

// IsNotFound reports whether err is an UpstreamAPIError of the not-found class.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsTransient reports whether err is an UpstreamAPIError of the transient class.
func IsTransient(err error) bool { return KindOf(err) == KindTransient }

// IsUnauthorized reports whether the reporting API rejected the bearer token.
func IsUnauthorized(err error) bool {
	var upstream *UpstreamAPIError
	return errors.As(err, &upstream) && upstream.StatusCode == http.StatusUnauthorized
}

// HTTPStatus maps an error to the status the page boundary answers with.
func HTTPStatus(err error) int {
	var (
		cfgErr  *ConfigurationError
		authErr *AuthenticationError
	)
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError
	case errors.As(err, &authErr):
		return http.StatusBadGateway
	}
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindTransient:
		return http.StatusServiceUnavailable
	case KindForbidden, KindUnknown:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
