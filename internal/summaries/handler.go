package summaries

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KunalSingh5431/smartPDF/internal/shared/server/middleware"
	"github.com/KunalSingh5431/smartPDF/internal/shared/server/respond"
	"github.com/KunalSingh5431/smartPDF/internal/summarizer"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// SummaryRoute is the full path of the summary endpoint, used to assign its rate limit group.
const SummaryRoute = "/api/documents/summary/:id"

// RegisterRoutes attaches the summary route to the /documents router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/summary/:id", h.get)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	id := strings.TrimSpace(c.Param("id"))
	c.Set("documentId", id)

	result, err := h.Svc.GetSummary(c.Request.Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "Document not found", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "Unauthorized", nil)
		case errors.Is(err, summarizer.ErrNotConfigured):
			respond.Error(c, http.StatusInternalServerError, "summarizer_not_configured", "Summarizer is not configured", nil)
		case errors.Is(err, ErrSourceUnavailable):
			respond.Error(c, http.StatusInternalServerError, "source_unavailable", "Document file is unavailable", gin.H{"error": err.Error()})
		case errors.Is(err, ErrExtractionFailed):
			respond.Error(c, http.StatusInternalServerError, "extraction_failed", "Could not read PDF text", gin.H{"error": err.Error()})
		case errors.Is(err, ErrSummarizationFailed):
			respond.Error(c, http.StatusInternalServerError, "summarization_failed", "Summary generation failed", gin.H{"error": err.Error()})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Server error", gin.H{"error": err.Error()})
		}
		return
	}

	c.Set("summaryCached", result.Cached)
	respond.OK(c, result)
}
