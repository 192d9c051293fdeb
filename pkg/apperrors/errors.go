package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrEmptyFile is returned when an uploaded file decodes to zero data rows.
	ErrEmptyFile = errors.New("uploaded file contains no data rows")

	ErrInvalidCodebookType = errors.New("codebook type must be material, activity, or bid_item")
)

// FileTooLargeError is returned when an upload exceeds the configured size limit.
type FileTooLargeError struct {
	Size    int64
	MaxSize int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file size %d bytes exceeds maximum of %d bytes", e.Size, e.MaxSize)
}

// TooManyRowsError is returned when an upload decodes to more rows than allowed.
type TooManyRowsError struct {
	Rows    int
	MaxRows int
}

func (e *TooManyRowsError) Error() string {
	return fmt.Sprintf("file contains %d rows, maximum allowed is %d", e.Rows, e.MaxRows)
}
