package jwks

import (
	"errors"
	"fmt"
)

// Sentinel errors for JWKS retrieval.
var (
	// ErrNetwork is matched by fetch failures at the transport level.
	ErrNetwork = errors.New("jwks: network error")

	// ErrStatus is matched by fetch failures caused by a non-200 response.
	ErrStatus = errors.New("jwks: unexpected response status")

	// ErrDecode is matched by fetch failures caused by a body that is not a JWKS.
	ErrDecode = errors.New("jwks: could not decode key set")

	// ErrKeyNotFound is returned by LookupKeyID when no key carries the requested id.
	ErrKeyNotFound = errors.New("jwks: key not found")
)

// FetchErrorKind classifies a failed fetch.
type FetchErrorKind int

const (
	KindNetwork FetchErrorKind = iota + 1
	KindStatus
	KindDecode
)

func (k FetchErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// FetchError is returned by a Fetcher when a retrieval fails. The Cache
// passes it to callers unchanged.
type FetchError struct {
	// Kind is the failure class.
	Kind FetchErrorKind

	// URL is the key set location that was requested.
	URL string

	// StatusCode is set for KindStatus.
	StatusCode int

	// Err contains the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	msg := fmt.Sprintf("could not fetch JWKS from %s", e.URL)
	switch e.Kind {
	case KindStatus:
		msg = fmt.Sprintf("%s: request returned status %d, expected 200", msg, e.StatusCode)
	case KindDecode:
		msg += ": failed to parse JWKS"
	case KindNetwork:
		msg += ": request failed"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error unwrapping.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is allows the error to be compared with the kind sentinels.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrStatus:
		return e.Kind == KindStatus
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

// kindOf reports the kind of err, or 0 when err is not a *FetchError.
func kindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
