package emailclient

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a delivery failure.
type ErrorKind string

const (
	// KindTransport covers connection, DNS, and TLS failures.
	KindTransport ErrorKind = "transport"
	// KindTimeout means no complete response arrived within the client timeout.
	// The remote side may still have accepted the email.
	KindTimeout ErrorKind = "timeout"
	// KindServerError means the API answered with a 4xx or 5xx status.
	KindServerError ErrorKind = "server_error"
)

// DeliveryError is returned by SendEmail for every failed attempt.
type DeliveryError struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	switch e.Kind {
	case KindServerError:
		msg := e.Body
		if msg == "" {
			msg = "<empty body>"
		}
		return fmt.Sprintf("email delivery: http %d: %s", e.StatusCode, msg)
	default:
		return fmt.Sprintf("email delivery %s: %v", e.Kind, e.Err)
	}
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a delivery timeout.
func IsTimeout(err error) bool { return kindOf(err) == KindTimeout }

// IsServerError reports whether err is a non-2xx API response.
func IsServerError(err error) bool { return kindOf(err) == KindServerError }

// IsTransport reports whether err is a connection-level failure.
func IsTransport(err error) bool { return kindOf(err) == KindTransport }

func kindOf(err error) ErrorKind {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
