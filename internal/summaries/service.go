package summaries

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/KunalSingh5431/smartPDF/internal/documents"
	"github.com/KunalSingh5431/smartPDF/internal/events"
	"github.com/KunalSingh5431/smartPDF/internal/shared/lock"
	"github.com/KunalSingh5431/smartPDF/internal/shared/metrics"
	"github.com/KunalSingh5431/smartPDF/internal/shared/storage/object"
	"github.com/KunalSingh5431/smartPDF/internal/shared/telemetry"
	"github.com/KunalSingh5431/smartPDF/internal/summarizer"
)

const (
	// CachedSummaryMinRunes is the validity threshold: a stored summary longer than this is served as is.
	CachedSummaryMinRunes = 10
	defaultComputeTimeout = 90 * time.Second
)

// Extractor produces plain text from raw PDF bytes.
type Extractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// Result is a summary and whether it came from the record.
type Result struct {
	Summary string `json:"summary"`
	Cached  bool   `json:"cached"`
}

// Service returns cached summaries or generates, stores and returns new ones.
//
// Concurrent requests for the same uncached document share one computation.
// The computation runs detached from the request that started it, bounded by
// ComputeTimeout, so a disconnecting client does not fail the others waiting
// on it. Locker extends the guarantee across replicas.
type Service struct {
	Repo           documents.DocumentsRepo
	Store          object.ObjectStore
	Extractor      Extractor
	Summarizer     summarizer.Client
	Locker         lock.Locker
	Events         events.Publisher
	ComputeTimeout time.Duration

	group singleflight.Group
}

// GetSummary implements the get-or-generate flow for one document.
func (s *Service) GetSummary(ctx context.Context, documentID, userID string) (Result, error) {
	doc, err := s.load(ctx, documentID)
	if err != nil {
		return Result{}, err
	}
	if doc.UserID != userID {
		return Result{}, ErrForbidden
	}
	if isCached(doc.Summary) {
		metrics.IncSummaryCacheHit()
		return Result{Summary: doc.Summary, Cached: true}, nil
	}
	metrics.IncSummaryCacheMiss()

	ch := s.group.DoChan(documentID, func() (any, error) {
		return s.compute(ctx, documentID)
	})
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		if res.Shared {
			metrics.IncSummaryShared()
		}
		return res.Val.(Result), nil
	}
}

func (s *Service) load(ctx context.Context, documentID string) (documents.Document, error) {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return documents.Document{}, ErrNotFound
		}
		return documents.Document{}, fmt.Errorf("load document: %w", err)
	}
	return doc, nil
}

func (s *Service) compute(parent context.Context, documentID string) (Result, error) {
	timeout := s.ComputeTimeout
	if timeout <= 0 {
		timeout = defaultComputeTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)
	defer cancel()

	start := time.Now()
	fields := map[string]any{
		"request_id":  telemetry.RequestIDFromContext(ctx),
		"document_id": documentID,
	}

	result, err := s.generate(ctx, documentID)
	fields["duration_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		metrics.IncSummaryFailed()
		fields["error"] = err
		telemetry.Error("summary.failed", fields)
		return Result{}, err
	}
	if !result.Cached {
		metrics.IncSummaryGenerated()
		metrics.ObserveSummaryDurationMs(float64(time.Since(start).Milliseconds()))
	}
	fields["cached"] = result.Cached
	fields["summary_runes"] = utf8.RuneCountInString(result.Summary)
	telemetry.Info("summary.computed", fields)
	return result, nil
}

func (s *Service) generate(ctx context.Context, documentID string) (Result, error) {
	locker := s.Locker
	if locker == nil {
		locker = lock.Nop{}
	}
	release, err := locker.Acquire(ctx, "summary:"+documentID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: acquire lock: %w", ErrSummarizationFailed, err)
	}
	defer release()

	// Another replica may have finished while we waited for the lock.
	doc, err := s.load(ctx, documentID)
	if err != nil {
		return Result{}, err
	}
	if isCached(doc.Summary) {
		return Result{Summary: doc.Summary, Cached: true}, nil
	}

	data, err := s.readSource(ctx, doc)
	if err != nil {
		return Result{}, err
	}

	text, err := s.Extractor.ExtractText(ctx, data)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	text = summarizer.Truncate(text, summarizer.MaxInputChars)

	raw, err := s.Summarizer.Summarize(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrSummarizationFailed, err)
	}
	summary := summarizer.Clean(raw)

	// The placeholder signals a malformed provider payload; storing it would hide the failure.
	if summary == summarizer.NoSummaryPlaceholder {
		return Result{Summary: summary}, nil
	}
	if err := s.Repo.UpdateSummary(ctx, documentID, summary); err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return Result{}, ErrNotFound
		}
		return Result{}, fmt.Errorf("store summary: %w", err)
	}

	events.PublishBestEffort(ctx, s.Events, events.New(events.TypeSummaryGenerated, documentID, doc.UserID, telemetry.RequestIDFromContext(ctx)))
	return Result{Summary: summary}, nil
}

// readSource loads the PDF only when the locator lives under the owner's keys.
func (s *Service) readSource(ctx context.Context, doc documents.Document) ([]byte, error) {
	key, err := object.OwnedKey(doc.URL, doc.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	rc, err := s.Store.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", ErrSourceUnavailable, err)
	}
	return data, nil
}

func isCached(summary string) bool {
	return utf8.RuneCountInString(summary) > CachedSummaryMinRunes
}
