package summaries

import "errors"

var (
	ErrNotFound            = errors.New("document not found")
	ErrForbidden           = errors.New("not the document owner")
	ErrSourceUnavailable   = errors.New("document file unavailable")
	ErrExtractionFailed    = errors.New("text extraction failed")
	ErrSummarizationFailed = errors.New("summarization failed")
)
