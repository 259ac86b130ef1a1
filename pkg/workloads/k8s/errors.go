package k8s

import (
	"errors"

	xe "github.com/opst/playground/pkg/errors"
	kubeerr "k8s.io/apimachinery/pkg/api/errors"
)

// ErrMissing is reported when the requested resource is not found.
type ErrMissing struct {
	cause error
}

func (e *ErrMissing) Error() string {
	return "resource is missing / caused by: " + e.cause.Error()
}

func (e *ErrMissing) Unwrap() error {
	return e.cause
}

// ErrConflict is reported when the resource to be created is there already.
type ErrConflict struct {
	cause error
}

func (e *ErrConflict) Error() string {
	return "resource conflicts / caused by: " + e.cause.Error()
}

func (e *ErrConflict) Unwrap() error {
	return e.cause
}

func AsMissingError(err error) bool {
	var m *ErrMissing
	return errors.As(err, &m)
}

func AsConflict(err error) bool {
	var c *ErrConflict
	return errors.As(err, &c)
}

// classify wraps "not found" as ErrMissing and "already exists" as ErrConflict.
//
// The location of the client method calling this is recorded.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case kubeerr.IsNotFound(err):
		return xe.WrapAsOuter(&ErrMissing{cause: err}, 1)
	case kubeerr.IsAlreadyExists(err):
		return xe.WrapAsOuter(&ErrConflict{cause: err}, 1)
	default:
		return err
	}
}
