package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KunalSingh5431/smartPDF/internal/events"
	"github.com/KunalSingh5431/smartPDF/internal/shared/storage/object"
	"github.com/KunalSingh5431/smartPDF/internal/shared/telemetry"
)

const pdfMimeType = "application/pdf"

// Service contains business logic for documents.
type Service struct {
	Store  object.ObjectStore
	Repo   DocumentsRepo
	Events events.Publisher
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// UploadFile stores a PDF under a timestamp-prefixed key and returns its public locator.
// Only the declared mime type is checked; the file name extension is ignored.
func (s *Service) UploadFile(ctx context.Context, userID, fileName, mimeType, baseURL string, r io.Reader) (UploadedFile, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return UploadedFile{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if !isPDF(mimeType) {
		return UploadedFile{}, ErrUnsupportedType
	}

	key, err := object.NewKey(userID, fileName, s.now())
	if err != nil {
		return UploadedFile{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	size, err := s.Store.Save(ctx, key, pdfMimeType, r)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("save file: %w", err)
	}

	telemetry.Info("document.file_saved", map[string]any{
		"request_id":  telemetry.RequestIDFromContext(ctx),
		"user_id":     userID,
		"storage_key": key,
		"size_bytes":  size,
	})
	return UploadedFile{URL: object.PublicURL(baseURL, key), Name: fileName}, nil
}

func isPDF(mimeType string) bool {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return false
	}
	return strings.EqualFold(mediaType, pdfMimeType)
}

// Register records metadata for a previously uploaded file.
func (s *Service) Register(ctx context.Context, userID, name, url string) (Document, error) {
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)
	if name == "" || url == "" {
		return Document{}, fmt.Errorf("%w: name and url are required", ErrInvalidInput)
	}
	if _, err := object.OwnedKey(url, userID); err != nil {
		return Document{}, fmt.Errorf("%w: url does not reference one of your uploads", ErrInvalidInput)
	}

	doc := Document{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       name,
		URL:        url,
		UploadedAt: s.now(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}

	events.PublishBestEffort(ctx, s.Events, events.New(events.TypeDocumentCreated, doc.ID, userID, telemetry.RequestIDFromContext(ctx)))
	return doc, nil
}

// List returns the caller's documents, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Delete removes the stored file and then the record.
//
// Ownership is checked before anything is touched. File removal failures are
// logged and reported through FileRemoved; they do not block removal of the
// record. If the record removal fails the record outlives its file and the
// delete can be retried.
func (s *Service) Delete(ctx context.Context, userID, id string) (DeleteResult, error) {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}
	if doc.UserID != userID {
		return DeleteResult{}, ErrForbidden
	}

	fileRemoved := s.removeFile(ctx, doc)

	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return DeleteResult{}, err
		}
		return DeleteResult{}, fmt.Errorf("delete record: %w", err)
	}

	events.PublishBestEffort(ctx, s.Events, events.New(events.TypeDocumentDeleted, doc.ID, userID, telemetry.RequestIDFromContext(ctx)))
	return DeleteResult{Message: "Document deleted successfully", FileRemoved: fileRemoved}, nil
}

func (s *Service) removeFile(ctx context.Context, doc Document) bool {
	fields := map[string]any{
		"request_id":  telemetry.RequestIDFromContext(ctx),
		"document_id": doc.ID,
		"url":         doc.URL,
	}
	// Records stored before ownership checks existed may point anywhere.
	key, err := object.OwnedKey(doc.URL, doc.UserID)
	if err != nil {
		fields["error"] = err
		telemetry.Warn("document.file_locator_invalid", fields)
		return false
	}
	fields["storage_key"] = key
	if err := s.Store.Delete(ctx, key); err != nil {
		fields["error"] = err
		telemetry.Error("document.file_delete_failed", fields)
		return false
	}
	return true
}

// OpenFile streams a stored object by key.
func (s *Service) OpenFile(ctx context.Context, key string) (io.ReadCloser, error) {
	clean, err := object.CleanKey(key)
	if err != nil {
		return nil, err
	}
	return s.Store.Open(ctx, clean)
}
