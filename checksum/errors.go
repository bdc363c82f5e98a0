package checksum

import "errors"

var (
	ErrFileNotFound   = errors.New("file not found")
	ErrFileUnreadable = errors.New("file unreadable")
	ErrIOFailure      = errors.New("I/O failure")
)
