package hst

import "errors"

var (
	ErrNotFound           = errors.New("hst: file not found")
	ErrTooSmall           = errors.New("hst: file too small")
	ErrEndOfFile          = errors.New("hst: end of file")
	ErrStartOfFile        = errors.New("hst: start of file")
	ErrUnsupportedVersion = errors.New("hst: unsupported format version")
	ErrOutOfRange         = errors.New("hst: read out of range")
	ErrTimestampNotFound  = errors.New("hst: timestamp not found")
)
