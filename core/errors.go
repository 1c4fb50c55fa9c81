package core

import (
	"errors"
	"fmt"
)

// Kind classifies a protocol failure
type Kind string

const (
	KindBuild               Kind = "build"
	KindInvalidRequest      Kind = "invalid_request"
	KindAccountLookup       Kind = "account_lookup"
	KindSimulationTransport Kind = "simulation_transport"
	KindEmptyAuthorization  Kind = "empty_authorization"
	KindSigning             Kind = "signing"
	KindDecode              Kind = "decode"
	KindSignatureMismatch   Kind = "signature_mismatch"
	KindInvalidCredentials  Kind = "invalid_credentials"
	KindSimulationRejected  Kind = "simulation_rejected"
	KindTokenIssuance       Kind = "token_issuance"
)

// Error is a terminal protocol failure carrying its kind and a human readable detail
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return string(e.Kind)
	case e.Err == nil:
		return e.Msg
	case e.Msg == "":
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so that the
// sentinels below match any error of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrBuild               = &Error{Kind: KindBuild}
	ErrInvalidRequest      = &Error{Kind: KindInvalidRequest}
	ErrAccountLookup       = &Error{Kind: KindAccountLookup}
	ErrSimulationTransport = &Error{Kind: KindSimulationTransport}
	ErrEmptyAuthorization  = &Error{Kind: KindEmptyAuthorization}
	ErrSigning             = &Error{Kind: KindSigning}
	ErrDecode              = &Error{Kind: KindDecode}
	ErrSignatureMismatch   = &Error{Kind: KindSignatureMismatch}
	ErrInvalidCredentials  = &Error{Kind: KindInvalidCredentials}
	ErrSimulationRejected  = &Error{Kind: KindSimulationRejected}
	ErrTokenIssuance       = &Error{Kind: KindTokenIssuance}
)

// Bearer token verification errors
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrInvalidToken = errors.New("invalid token")
)

// NewError creates a protocol error of the given kind
func NewError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the first protocol error in err's chain, or an
// empty Kind if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
