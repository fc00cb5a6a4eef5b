package export

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/nfrais/notes-de-frais/internal/auth"
	"github.com/nfrais/notes-de-frais/internal/transport"
	"github.com/nfrais/notes-de-frais/pkg/logger"
)

// monthLayout is the path parameter format for a target month.
const monthLayout = "2006-01"

type ServiceAPI interface {
	ExportMonth(ctx context.Context, userID string, month time.Time, onProgress ProgressFunc) (*Archive, error)
	ListRecords(userID string) ([]*ExportRecord, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// ExportMonth builds the month bundle and streams it back as a zip download.
func (h *Handler) ExportMonth(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	month, err := time.ParseInLocation(monthLayout, chi.URLParam(r, "month"), time.UTC)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "month must be formatted as YYYY-MM")
		return
	}

	archive, err := h.Service.ExportMonth(r.Context(), user.ID, month, nil)
	if err != nil {
		if err == ErrReceiptsUnavailable {
			h.WriteError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.Logger.Error("ExportMonth: build failed", "error", err, "month", month.Format(monthLayout))
		h.WriteError(w, http.StatusInternalServerError, "failed to build export")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(archive.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(archive.Data); err != nil {
		h.Logger.Error("ExportMonth: failed to write archive", "error", err)
	}
}

func (h *Handler) ListExports(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	records, err := h.Service.ListRecords(user.ID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, "failed to list exports")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"exports": records})
}
