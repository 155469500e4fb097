// Package apperr classifies failures so that only the top-level driver decides
// whether the process keeps running.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindConfig is a missing or empty credential. Fatal.
	KindConfig
	// KindAuth is a rejected token or credential. The cycle fails.
	KindAuth
	// KindTransport is a network or timeout failure. The cycle is skipped.
	KindTransport
	// KindDecode is a malformed bus payload or meter telegram.
	KindDecode
	// KindProtocol is a broken protocol assumption (home count, message count, missing field).
	KindProtocol
	// KindBus is a failed publish or subscribe. Fatal.
	KindBus
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config error"
	case KindAuth:
		return "auth error"
	case KindTransport:
		return "transport error"
	case KindDecode:
		return "decode error"
	case KindProtocol:
		return "protocol assumption violation"
	case KindBus:
		return "bus error"
	default:
		return "unknown error"
	}
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with kind. A nil err stays nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Config(op string, err error) error    { return New(KindConfig, op, err) }
func Auth(op string, err error) error      { return New(KindAuth, op, err) }
func Transport(op string, err error) error { return New(KindTransport, op, err) }
func Decode(op string, err error) error    { return New(KindDecode, op, err) }
func Protocol(op string, err error) error  { return New(KindProtocol, op, err) }
func Bus(op string, err error) error       { return New(KindBus, op, err) }

// KindOf returns the kind of the outermost classified error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsFatal reports whether err must stop the process.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindConfig, KindBus:
		return true
	}
	return false
}
