package engine

import (
	"github.com/pkg/errors"
)

// Error codes carried on the wire by the TCP protocol, so a remote client can
// return the same sentinels as the embedded store.
const (
	CodeNotFound        = "not_found"
	CodeInvalid         = "invalid"
	CodeUnsupportedKind = "unsupported_kind"
	CodePersistence     = "persistence"
	CodeInternal        = "internal"
)

// ErrorCode classifies err for transmission.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrUnsupportedKind):
		return CodeUnsupportedKind
	case errors.Is(err, ErrInvalidRecord):
		return CodeInvalid
	case errors.Is(err, ErrPersistence):
		return CodePersistence
	default:
		return CodeInternal
	}
}

// ErrorFromCode rebuilds an error received from the wire. The result wraps
// the matching sentinel, so errors.Is works on the client side.
func ErrorFromCode(code, msg string) error {
	var sentinel error
	switch code {
	case CodeNotFound:
		sentinel = ErrNotFound
	case CodeUnsupportedKind:
		sentinel = ErrUnsupportedKind
	case CodeInvalid:
		sentinel = ErrInvalidRecord
	case CodePersistence:
		sentinel = ErrPersistence
	default:
		return errors.Errorf("remote error: %s", msg)
	}
	return errors.Wrap(sentinel, msg)
}
