package u8

import "errors"

var (
	// ErrFormat indicates the input is not a structurally valid U8 archive.
	ErrFormat = errors.New("u8: invalid format")
	// ErrSizeMismatch indicates an offset or length points outside the input.
	ErrSizeMismatch = errors.New("u8: size mismatch")
	// ErrTooLarge indicates the tree cannot be represented in the format.
	ErrTooLarge = errors.New("u8: archive too large")
)
