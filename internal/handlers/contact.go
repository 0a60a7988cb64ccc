package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/BradenHooton/landing/internal/auth"
	"github.com/BradenHooton/landing/internal/models"
	"github.com/BradenHooton/landing/internal/services"
	pkghttp "github.com/BradenHooton/landing/pkg/http"
	pkglogger "github.com/BradenHooton/landing/pkg/logger"
)

const maxBodyBytes = 1 << 16

// ContactServiceInterface defines the contact form operations
type ContactServiceInterface interface {
	Submit(ctx context.Context, in services.ContactInput) (*models.ContactSubmission, error)
	List(ctx context.Context, limit, offset int) ([]*models.ContactSubmission, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}

type ContactHandler struct {
	service  ContactServiceInterface
	ipConfig *pkghttp.IPConfig
	env      string
	logger   *slog.Logger
	now      func() time.Time
}

func NewContactHandler(service ContactServiceInterface, ipConfig *pkghttp.IPConfig, env string, logger *slog.Logger) *ContactHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactHandler{
		service:  service,
		ipConfig: ipConfig,
		env:      env,
		logger:   logger,
		now:      time.Now,
	}
}

// ContactRequest represents the public contact form
type ContactRequest struct {
	FullName string `json:"fullName" validate:"required,trimmed_min=2,max=255"`
	Email    string `json:"email" validate:"required,trimmed_email,max=320"`
	Phone    string `json:"phone" validate:"required,trimmed_min=10,max=50"`
}

// ContactListResponse is one page of submissions
type ContactListResponse struct {
	Contacts []*models.ContactSubmission `json:"contacts"`
	Limit    int                         `json:"limit"`
	Offset   int                         `json:"offset"`
}

// Submit handles POST /api/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteErrorWithDetails(w, http.StatusBadRequest, "validation_error", "Invalid contact request", err.Error())
		return
	}

	if _, err := h.service.Submit(r.Context(), services.ContactInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	}); err != nil {
		h.logger.Error("failed to submit contact form",
			slog.String("email", pkglogger.SanitizedEmail(req.Email)),
			slog.String("ip", pkghttp.ExtractClientIP(r, h.ipConfig)),
			slog.Any("error", err))
		writeInternalError(w, h.env, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

// List handles GET /api/admin/contacts?limit=&offset=
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		pkghttp.WriteBadRequest(w, "limit must be an integer")
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		pkghttp.WriteBadRequest(w, "offset must be an integer")
		return
	}
	limit, offset = services.ClampPage(limit, offset)

	contacts, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeInternalError(w, h.env, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ContactListResponse{Contacts: contacts, Limit: limit, Offset: offset})
}

// Export handles GET /api/admin/contacts/export.csv
func (h *ContactHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportCSV(r.Context(), &buf); err != nil {
		writeInternalError(w, h.env, err)
		return
	}

	h.logger.Info("contacts exported",
		slog.String("admin_id", auth.GetSessionFromContext(r).UserID()),
		slog.Int("bytes", buf.Len()))

	filename := "contacts-" + h.now().UTC().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
