package services

import "errors"

// Dashboard service errors
var (
	// Upload errors
	ErrInvalidUpload = errors.New("upload could not be read as a table")

	// View errors
	ErrKOutOfRange       = errors.New("number of clusters is outside the allowed range")
	ErrUnsupportedReport = errors.New("unsupported report format")
)
