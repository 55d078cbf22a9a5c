package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/KunalSingh5431/smartPDF/internal/shared/storage/object"
)

var (
	ErrEmptyInput = errors.New("empty pdf data")
	ErrMalformed  = errors.New("malformed pdf")
)

// PDFExtractor produces plain text from raw PDF bytes using github.com/ledongthuc/pdf.
type PDFExtractor struct{}

// ExtractText returns the plain text of every page in data.
func (PDFExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyInput
	}
	return extractPDF(data)
}

// ExtractFromStore reads key from store and extracts its text.
func ExtractFromStore(ctx context.Context, store object.ObjectStore, key string) (string, error) {
	body, err := store.Open(ctx, key)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: %w", key, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: read: %w", key, err)
	}
	return PDFExtractor{}.ExtractText(ctx, raw)
}

// The pdf library panics on some truncated or corrupt inputs.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return buf.String(), nil
}
