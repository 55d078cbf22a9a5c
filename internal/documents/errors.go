package documents

import "errors"

var (
	ErrNotFound        = errors.New("document not found")
	ErrForbidden       = errors.New("not the document owner")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnsupportedType = errors.New("only PDF files are allowed")
)
