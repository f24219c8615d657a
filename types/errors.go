package types

import (
	"errors"
	"fmt"
)

var (
	// ErrModelUnavailable is returned by every scoring call once model initialization failed
	ErrModelUnavailable = errors.New("feature model unavailable")
	// ErrImageDecode marks a file that could not be loaded, resized or embedded
	ErrImageDecode = errors.New("image decode failed")
	// ErrNoLoader is returned when no registered loader handles a file extension
	ErrNoLoader = errors.New("no suitable image loader")
)

// DecodeError ties an image decode failure to the offending path
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("decode %s: %v", e.Path, ErrImageDecode)
	}
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

// Is lets errors.Is(err, ErrImageDecode) match any DecodeError
func (e *DecodeError) Is(target error) bool {
	return target == ErrImageDecode
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError wraps err as a decode failure for path
func NewDecodeError(path string, err error) error {
	return &DecodeError{Path: path, Err: err}
}

// IsModelUnavailable reports whether err stems from a failed model initialization
func IsModelUnavailable(err error) bool {
	return errors.Is(err, ErrModelUnavailable)
}

// IsDecodeError reports whether err is an image decode or feature shape failure
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrImageDecode)
}

// DecodeErrorPath returns the file a decode error is attributed to
func DecodeErrorPath(err error) (string, bool) {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr.Path, true
	}
	return "", false
}
