package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nfrais/notes-de-frais/internal/category"
	"github.com/nfrais/notes-de-frais/internal/core/events"
	"github.com/nfrais/notes-de-frais/internal/money"
	"github.com/nfrais/notes-de-frais/internal/storage"
)

// Repository defines the data access methods for receipts
type Repository interface {
	Create(receipt *Receipt) error
	GetByID(id string) (*Receipt, error)
	GetByQueueEntryID(queueEntryID string) (*Receipt, error)
	ListForMonth(userID string, monthStart, monthEnd time.Time, cat *category.Key) ([]*Receipt, error)
	Update(receipt *Receipt) error
	Delete(id string) error
}

// allowed image extensions, matching what the OCR gateway accepts
var allowedExtensions = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"heic": "image/heic",
}

// MediaTypeForPath maps a stored image path to its media type, defaulting to
// JPEG the way the original scanner did.
func MediaTypeForPath(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return "image/jpeg"
	}
	if mt, ok := allowedExtensions[strings.ToLower(path[idx+1:])]; ok {
		return mt
	}
	return "image/jpeg"
}

// Service handles receipt business logic
type Service struct {
	repo   Repository
	store  storage.Storage
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, store storage.Storage, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		store:  store,
		bus:    bus,
		logger: logger,
	}
}

// CreateReceipt persists a new receipt. Receipts with an image start queued
// for scanning; manual entries without one have nothing to scan.
func (s *Service) CreateReceipt(userID string, dto CreateReceiptDTO) (*Receipt, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("receipt validation failed", "error", err, "user_id", userID)
		return nil, err
	}

	if dto.QueueEntryID != nil {
		if existing, err := s.repo.GetByQueueEntryID(*dto.QueueEntryID); err == nil && existing != nil {
			s.logger.Info("queue entry already synced, returning existing receipt",
				"queue_entry_id", *dto.QueueEntryID,
				"receipt_id", existing.ID)
			return existing, ErrDuplicateQueueEntry
		}
	}

	now := time.Now()
	rec := &Receipt{
		ID:                uuid.NewString(),
		UserID:            userID,
		QueueEntryID:      dto.QueueEntryID,
		ReceiptDate:       dto.Date(),
		Category:          dto.Category,
		AmountTTCCents:    dto.AmountTTCCents,
		AmountTVACents:    dto.AmountTVACents,
		CompanyName:       dto.CompanyName,
		Designation:       dto.Designation,
		DiversAccountCode: dto.DiversAccountCode,
		SalonSubType:      dto.SalonSubType,
		ImagePath:         dto.ImagePath,
		ScanStatus:        ScanStatusCompleted,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if rec.HasImage() {
		rec.ScanStatus = ScanStatusQueued
	}

	if err := s.repo.Create(rec); err != nil {
		s.logger.Error("failed to create receipt", "error", err, "user_id", userID)
		return nil, err
	}

	if rec.ScanStatus == ScanStatusQueued {
		s.bus.Publish(context.Background(), events.NewScanQueuedEvent(rec.ID, rec.UserID, *rec.ImagePath))
	}

	s.logger.Info("receipt created",
		"receipt_id", rec.ID,
		"user_id", userID,
		"category", rec.Category,
		"amount_ttc_cents", rec.AmountTTCCents,
		"scan_status", rec.ScanStatus)

	return rec, nil
}

// GetReceipt retrieves a receipt by ID with ownership control
func (s *Service) GetReceipt(id, userID string) (*Receipt, error) {
	rec, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get receipt", "error", err, "receipt_id", id)
		return nil, ErrReceiptNotFound
	}

	if rec.UserID != userID {
		s.logger.Warn("unauthorized access to receipt", "receipt_id", id, "user_id", userID)
		return nil, ErrUnauthorizedAccess
	}

	return rec, nil
}

// ListForMonth returns the user's receipts whose date falls in the month
// containing monthStart, ordered by receipt date then creation time. That
// ordering drives stable sequence numbers in the export archive.
func (s *Service) ListForMonth(userID string, month time.Time, cat *category.Key) ([]*Receipt, error) {
	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-24 * time.Hour)

	receipts, err := s.repo.ListForMonth(userID, monthStart, monthEnd, cat)
	if err != nil {
		s.logger.Error("failed to list receipts", "error", err, "user_id", userID, "month", monthStart.Format("2006-01"))
		return nil, err
	}

	return receipts, nil
}

// UpdateReceipt applies a partial edit, re-validating the category
// invariants on the merged state.
func (s *Service) UpdateReceipt(id, userID string, dto UpdateReceiptDTO) (*Receipt, error) {
	rec, err := s.GetReceipt(id, userID)
	if err != nil {
		return nil, err
	}

	if dto.ReceiptDate != nil {
		d, err := time.Parse(dateLayout, *dto.ReceiptDate)
		if err != nil {
			return nil, fmt.Errorf("receipt date must be formatted YYYY-MM-DD")
		}
		rec.ReceiptDate = d
	}
	if dto.Category != nil {
		rec.Category = *dto.Category
	}
	if dto.AmountTTCCents != nil {
		rec.AmountTTCCents = *dto.AmountTTCCents
	}
	if dto.ClearTVA {
		rec.AmountTVACents = nil
	} else if dto.AmountTVACents != nil {
		rec.AmountTVACents = dto.AmountTVACents
	}
	if dto.CompanyName != nil {
		rec.CompanyName = dto.CompanyName
	}
	if dto.Designation != nil {
		rec.Designation = dto.Designation
	}
	if dto.DiversAccountCode != nil {
		rec.DiversAccountCode = dto.DiversAccountCode
	}
	if dto.SalonSubType != nil {
		rec.SalonSubType = dto.SalonSubType
	}
	if dto.IsVerified != nil {
		rec.IsVerified = *dto.IsVerified
	}

	if err := s.validateMerged(rec); err != nil {
		s.logger.Error("receipt update validation failed", "error", err, "receipt_id", id)
		return nil, err
	}

	rec.UpdatedAt = time.Now()
	if err := s.repo.Update(rec); err != nil {
		s.logger.Error("failed to update receipt", "error", err, "receipt_id", id)
		return nil, err
	}

	s.logger.Info("receipt updated", "receipt_id", id, "user_id", userID)
	return rec, nil
}

// validateMerged re-checks the category invariants after a partial update.
// A category change drops conditional fields that no longer apply instead of
// failing: the values were valid when entered, the new category just does
// not use them.
func (s *Service) validateMerged(rec *Receipt) error {
	if !category.IsValid(rec.Category) {
		return fmt.Errorf("unknown category %q", rec.Category)
	}
	cfg := category.Get(rec.Category)

	if !cfg.TracksTVA {
		rec.AmountTVACents = nil
	}
	if !cfg.HasCompanyName {
		rec.CompanyName = nil
	}
	if !cfg.HasDesignation {
		rec.Designation = nil
	}
	if !cfg.HasDiversAccountCode {
		rec.DiversAccountCode = nil
	}
	if !cfg.HasSalonSubType {
		rec.SalonSubType = nil
	} else if rec.SalonSubType != nil && !category.IsValidSalonSubType(*rec.SalonSubType) {
		return fmt.Errorf("unknown salon sub-type %q", *rec.SalonSubType)
	}
	if rec.AmountTTCCents < 0 {
		return fmt.Errorf("amount must not be negative")
	}
	return nil
}

// DeleteReceipt removes a receipt and best-effort deletes its image blob.
func (s *Service) DeleteReceipt(id, userID string) error {
	rec, err := s.GetReceipt(id, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete receipt", "error", err, "receipt_id", id)
		return err
	}

	if rec.HasImage() {
		if err := s.store.Delete(*rec.ImagePath); err != nil {
			s.logger.Warn("failed to delete receipt image", "error", err, "receipt_id", id, "image_path", *rec.ImagePath)
		}
	}

	s.logger.Info("receipt deleted", "receipt_id", id, "user_id", userID)
	return nil
}

// UploadImage stores an image blob under the user's prefix and returns its
// storage path for use in a subsequent receipt create or update.
func (s *Service) UploadImage(userID string, data []byte, ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", fmt.Errorf("unsupported image extension %q", ext)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty image")
	}

	path := fmt.Sprintf("%s/%s.%s", userID, uuid.NewString(), ext)
	if _, err := s.store.Save(path, data); err != nil {
		s.logger.Error("failed to store image", "error", err, "user_id", userID)
		return "", err
	}

	return path, nil
}

// ScanResult is the OCR gateway's best-effort field guess, amounts in major
// units. Everything is nullable; the capability may fail entirely.
type ScanResult struct {
	VendorName *string  `json:"vendor_name"`
	Date       *string  `json:"date"`
	TotalTTC   *float64 `json:"total_ttc"`
	TVAAmount  *float64 `json:"tva_amount"`
}

// MarkScanProcessing flips a queued receipt to processing.
func (s *Service) MarkScanProcessing(id string) error {
	rec, err := s.repo.GetByID(id)
	if err != nil {
		return ErrReceiptNotFound
	}
	rec.ScanStatus = ScanStatusProcessing
	rec.UpdatedAt = time.Now()
	return s.repo.Update(rec)
}

// ApplyScanResult fills the OCR-derived amounts into the receipt. Only fields
// the OCR actually produced are touched; the user verifies and corrects
// afterwards. The raw result is kept for the correction UI.
func (s *Service) ApplyScanResult(id string, res ScanResult) error {
	rec, err := s.repo.GetByID(id)
	if err != nil {
		return ErrReceiptNotFound
	}

	cfg := category.Get(rec.Category)

	// A receipt the user already verified keeps its corrected amounts.
	if !rec.IsVerified {
		if res.TotalTTC != nil {
			rec.AmountTTCCents = money.EurosToCents(*res.TotalTTC)
		}
		if res.TVAAmount != nil && cfg.TracksTVA {
			tva := money.EurosToCents(*res.TVAAmount)
			rec.AmountTVACents = &tva
		}
	}

	if raw, err := json.Marshal(res); err == nil {
		rawStr := string(raw)
		rec.OCRRawResult = &rawStr
	}

	rec.ScanStatus = ScanStatusCompleted
	rec.UpdatedAt = time.Now()

	if err := s.repo.Update(rec); err != nil {
		s.logger.Error("failed to apply scan result", "error", err, "receipt_id", id)
		return err
	}

	s.bus.Publish(context.Background(), events.NewScanCompletedEvent(rec.ID, &rec.AmountTTCCents, rec.AmountTVACents))
	s.logger.Info("scan result applied", "receipt_id", id)
	return nil
}

// MarkScanFailed records a scan failure. The receipt stays editable and
// exportable; the user falls back to manual entry.
func (s *Service) MarkScanFailed(id, reason string) error {
	rec, err := s.repo.GetByID(id)
	if err != nil {
		return ErrReceiptNotFound
	}

	rec.ScanStatus = ScanStatusFailed
	rec.UpdatedAt = time.Now()

	if err := s.repo.Update(rec); err != nil {
		s.logger.Error("failed to mark scan failed", "error", err, "receipt_id", id)
		return err
	}

	s.bus.Publish(context.Background(), events.NewScanFailedEvent(rec.ID, reason))
	s.logger.Warn("scan failed", "receipt_id", id, "reason", reason)
	return nil
}
