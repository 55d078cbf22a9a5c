package documents

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KunalSingh5431/smartPDF/internal/shared/server/middleware"
	"github.com/KunalSingh5431/smartPDF/internal/shared/server/respond"
	"github.com/KunalSingh5431/smartPDF/internal/shared/storage/object"
)

const (
	defaultMaxUploadSize = 10 << 20 // 10MB
	maxListLimit         = 100
	uploadFormField      = "pdf"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
	// PublicBaseURL prefixes returned file URLs. Empty means derive from the request.
	PublicBaseURL string
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64, publicBaseURL string) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadSize
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes, PublicBaseURL: strings.TrimSpace(publicBaseURL)}
}

// RegisterRoutes attaches document routes to the /documents router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload-file", h.uploadFile)
	rg.POST("/upload", h.register)
	rg.GET("", h.list)
	rg.GET("/", h.list)
	rg.GET("/doc", h.list)
	rg.DELETE("/delete/:id", h.delete)
}

// RegisterFileRoutes serves stored files under /uploads. These routes are public.
func (h *Handler) RegisterFileRoutes(r gin.IRoutes) {
	r.GET(strings.TrimSuffix(object.UploadsPath, "/")+"/*key", h.serveFile)
}

func (h *Handler) uploadFile(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	fileHeader, err := c.FormFile(uploadFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "File too large", gin.H{"maxBytes": h.MaxUploadBytes})
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "No file uploaded", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	uploaded, err := h.Svc.UploadFile(c.Request.Context(), userID, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), h.baseURL(c), file)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedType):
			respond.Error(c, http.StatusBadRequest, "unsupported_type", "Only PDF files are allowed", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "upload_failed", "Upload failed", gin.H{"error": err.Error()})
		}
		return
	}

	respond.OK(c, uploaded)
}

func (h *Handler) baseURL(c *gin.Context) string {
	if h.PublicBaseURL != "" {
		return h.PublicBaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}

type registerRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (h *Handler) register(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "All fields are required", nil)
		return
	}

	doc, err := h.Svc.Register(c.Request.Context(), userID, req.Name, req.URL)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "All fields are required", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Server Error", gin.H{"error": err.Error()})
		}
		return
	}

	c.Set("documentId", doc.ID)
	respond.Created(c, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 0
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Server Error", gin.H{"error": err.Error()})
		}
		return
	}

	respond.OK(c, listResponse(docs))
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	id := strings.TrimSpace(c.Param("id"))
	c.Set("documentId", id)

	result, err := h.Svc.Delete(c.Request.Context(), userID, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "Document not found", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "Unauthorized", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "delete_failed", "Delete failed", gin.H{"error": err.Error()})
		}
		return
	}

	respond.OK(c, result)
}

func (h *Handler) serveFile(c *gin.Context) {
	rc, err := h.Svc.OpenFile(c.Request.Context(), c.Param("key"))
	if err != nil {
		switch {
		case errors.Is(err, object.ErrNotFound), errors.Is(err, object.ErrInvalidKey):
			respond.Error(c, http.StatusNotFound, "not_found", "File not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read file", nil)
		}
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, pdfMimeType, rc, map[string]string{
		"Cache-Control": "private, max-age=300",
	})
}
