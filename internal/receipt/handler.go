package receipt

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/nfrais/notes-de-frais/internal/auth"
	"github.com/nfrais/notes-de-frais/internal/category"
	"github.com/nfrais/notes-de-frais/internal/transport"
	"github.com/nfrais/notes-de-frais/pkg/logger"
)

// maxImageBytes caps a single uploaded receipt photo.
const maxImageBytes = 15 << 20

type ServiceAPI interface {
	CreateReceipt(userID string, dto CreateReceiptDTO) (*Receipt, error)
	GetReceipt(id, userID string) (*Receipt, error)
	ListForMonth(userID string, month time.Time, cat *category.Key) ([]*Receipt, error)
	UpdateReceipt(id, userID string, dto UpdateReceiptDTO) (*Receipt, error)
	DeleteReceipt(id, userID string) error
	UploadImage(userID string, data []byte, ext string) (string, error)
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

func (h *Handler) CreateReceipt(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("CreateReceipt: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateReceiptDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateReceipt: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// that path is reserved for the offline queue sync
	dto.QueueEntryID = nil

	rec, err := h.Service.CreateReceipt(user.ID, dto)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := ListReceiptsQuery{Month: r.URL.Query().Get("month")}
	if c := r.URL.Query().Get("category"); c != "" {
		key := category.Key(c)
		q.Category = &key
	}
	if err := q.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	receipts, err := h.Service.ListForMonth(user.ID, q.MonthTime(), q.Category)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, "failed to list receipts")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"receipts": receipts,
		"month":    q.Month,
	})
}

func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	rec, err := h.Service.GetReceipt(chi.URLParam(r, "id"), user.ID)
	if err != nil {
		h.writeReceiptError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) UpdateReceipt(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpdateReceiptDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.Service.UpdateReceipt(chi.URLParam(r, "id"), user.ID, dto)
	if err != nil {
		h.writeReceiptError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) DeleteReceipt(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Service.DeleteReceipt(chi.URLParam(r, "id"), user.ID); err != nil {
		h.writeReceiptError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UploadImage accepts a raw image body with its extension as a query param
// and returns the storage path for the follow-up receipt create.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ext := r.URL.Query().Get("ext")
	if ext == "" {
		ext = "jpg"
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImageBytes+1))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "failed to read image")
		return
	}
	if len(data) > maxImageBytes {
		h.WriteError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}

	path, err := h.Service.UploadImage(user.ID, data, ext)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]string{"image_path": path})
}

func (h *Handler) writeReceiptError(w http.ResponseWriter, err error) {
	switch err {
	case ErrReceiptNotFound:
		h.WriteError(w, http.StatusNotFound, err.Error())
	case ErrUnauthorizedAccess:
		h.WriteError(w, http.StatusForbidden, err.Error())
	default:
		h.WriteError(w, http.StatusBadRequest, err.Error())
	}
}
