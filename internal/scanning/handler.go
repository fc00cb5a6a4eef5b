package scanning

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nfrais/notes-de-frais/internal/receipt"
	"github.com/nfrais/notes-de-frais/internal/transport"
	"github.com/nfrais/notes-de-frais/pkg/logger"
)

// CallbackHandler receives scan results pushed by the extraction service,
// for deployments where the OCR runs out of process and calls back instead
// of answering inline.
type CallbackHandler struct {
	*transport.BaseHandler
	receipts ReceiptAPI
}

func NewCallbackHandler(receipts ReceiptAPI) *CallbackHandler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &CallbackHandler{
		BaseHandler: transport.NewBaseHandler(lg),
		receipts:    receipts,
	}
}

type ScanCallbackRequest struct {
	ReceiptID  string   `json:"receipt_id"`
	Status     string   `json:"status"`
	VendorName *string  `json:"vendor_name,omitempty"`
	Date       *string  `json:"date,omitempty"`
	TotalTTC   *float64 `json:"total_ttc,omitempty"`
	TVAAmount  *float64 `json:"tva_amount,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func (h *CallbackHandler) HandleScanCallback(w http.ResponseWriter, r *http.Request) {
	var req ScanCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("invalid scan callback request", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ReceiptID == "" {
		h.WriteError(w, http.StatusBadRequest, "receipt_id is required")
		return
	}

	h.Logger.Info("received scan callback",
		"receipt_id", req.ReceiptID,
		"status", req.Status)

	var err error
	switch req.Status {
	case JobStatusFailed:
		reason := req.Error
		if reason == "" {
			reason = "extraction failed"
		}
		err = h.receipts.MarkScanFailed(req.ReceiptID, reason)
	case JobStatusCompleted, "":
		err = h.receipts.ApplyScanResult(req.ReceiptID, receipt.ScanResult{
			VendorName: req.VendorName,
			Date:       req.Date,
			TotalTTC:   req.TotalTTC,
			TVAAmount:  req.TVAAmount,
		})
	default:
		h.WriteError(w, http.StatusBadRequest, "unknown status")
		return
	}

	if err != nil {
		if err == receipt.ErrReceiptNotFound {
			h.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		h.Logger.Error("failed to process scan callback", "error", err, "receipt_id", req.ReceiptID)
		h.WriteError(w, http.StatusInternalServerError, "failed to process scan callback")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
