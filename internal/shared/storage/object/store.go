package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/KunalSingh5431/smartPDF/internal/shared/util"
)

var (
	// ErrNotFound is returned by Open when no object exists under the key.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey is returned for keys that are empty or escape the store root.
	ErrInvalidKey = errors.New("invalid storage key")
	// ErrForeignKey is returned when a locator resolves outside the user's key space.
	ErrForeignKey = errors.New("storage key belongs to another user")
)

// UploadsPath is the public path prefix under which stored objects are served.
const UploadsPath = "/uploads/"

// ObjectStore defines the contract for saving and retrieving binary objects.
// Delete of a missing key is not an error.
type ObjectStore interface {
	Save(ctx context.Context, storageKey string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// NewKey builds the storage key for an uploaded file:
// <hashed user>/<unix millis>-<sanitized name>.
func NewKey(userID, fileName string, at time.Time) (string, error) {
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	stamp := strconv.FormatInt(at.UnixMilli(), 10)
	return UserPrefix(userID) + stamp + "-" + sanitized, nil
}

// PublicURL renders the locator stored on a document for a key.
func PublicURL(baseURL, storageKey string) string {
	segments := strings.Split(storageKey, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(baseURL, "/") + UploadsPath + strings.Join(segments, "/")
}

// KeyFromLocator resolves a document locator to a storage key. Locators are
// either public URLs containing /uploads/ or bare storage keys.
func KeyFromLocator(locator string) (string, error) {
	raw := strings.TrimSpace(locator)
	if raw == "" {
		return "", ErrInvalidKey
	}
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		raw = u.Path
	} else if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	if idx := strings.Index(raw, UploadsPath); idx >= 0 {
		raw = raw[idx+len(UploadsPath):]
	}
	return CleanKey(raw)
}

// UserPrefix is the key directory holding userID's uploads.
func UserPrefix(userID string) string {
	return util.HashUserKey(userID) + "/"
}

// OwnedKey resolves locator like KeyFromLocator and requires the key to sit
// under userID's prefix, so a record can never point at another user's file.
func OwnedKey(locator, userID string) (string, error) {
	key, err := KeyFromLocator(locator)
	if err != nil {
		return "", err
	}
	if userID == "" || !strings.HasPrefix(key, UserPrefix(userID)) {
		return "", fmt.Errorf("%w: %s", ErrForeignKey, key)
	}
	return key, nil
}

// CleanKey normalizes a storage key and rejects traversal.
func CleanKey(key string) (string, error) {
	trimmed := strings.TrimLeft(strings.TrimSpace(key), "/")
	if trimmed == "" {
		return "", ErrInvalidKey
	}
	for _, seg := range strings.Split(trimmed, "/") {
		if seg == ".." {
			return "", ErrInvalidKey
		}
	}
	clean := path.Clean(trimmed)
	if clean == "." || strings.HasPrefix(clean, "../") || strings.Contains(clean, "\\") {
		return "", ErrInvalidKey
	}
	return clean, nil
}
