package uploadqueue

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nfrais/notes-de-frais/internal/category"
	"github.com/nfrais/notes-de-frais/internal/receipt"
)

// EnqueueDTO is a capture made while offline. The photo has already been
// uploaded; amounts are unknown until the scan runs.
type EnqueueDTO struct {
	ReceiptDate       string       `json:"receipt_date"`
	Category          category.Key `json:"category"`
	CompanyName       *string      `json:"company_name,omitempty"`
	Designation       *string      `json:"designation,omitempty"`
	DiversAccountCode *string      `json:"divers_account_code,omitempty"`
	SalonSubType      *string      `json:"salon_sub_type,omitempty"`
	ImagePath         string       `json:"image_path"`
}

func (dto EnqueueDTO) Validate() error {
	if dto.ImagePath == "" {
		return errors.New("image path is required")
	}
	// The receipt payload rules apply to queue entries too.
	probe := receipt.CreateReceiptDTO{
		ReceiptDate:       dto.ReceiptDate,
		Category:          dto.Category,
		CompanyName:       dto.CompanyName,
		Designation:       dto.Designation,
		DiversAccountCode: dto.DiversAccountCode,
		SalonSubType:      dto.SalonSubType,
	}
	return probe.Validate()
}

// ReceiptCreator is the slice of the receipt service the sync pass needs.
type ReceiptCreator interface {
	CreateReceipt(userID string, dto receipt.CreateReceiptDTO) (*receipt.Receipt, error)
}

// SyncResult summarizes one sync pass.
type SyncResult struct {
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type Service struct {
	repo       Repository
	receipts   ReceiptCreator
	maxRetries int
	logger     *slog.Logger
}

func NewService(repo Repository, receipts ReceiptCreator, maxRetries int, logger *slog.Logger) *Service {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Service{
		repo:       repo,
		receipts:   receipts,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

func (s *Service) Enqueue(userID string, dto EnqueueDTO) (*PendingUpload, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	entry := &PendingUpload{
		ID:                uuid.New().String(),
		UserID:            userID,
		ReceiptDate:       dto.ReceiptDate,
		Category:          dto.Category,
		CompanyName:       dto.CompanyName,
		Designation:       dto.Designation,
		DiversAccountCode: dto.DiversAccountCode,
		SalonSubType:      dto.SalonSubType,
		ImagePath:         dto.ImagePath,
	}

	if err := s.repo.Create(entry); err != nil {
		s.logger.Error("failed to enqueue pending upload", "error", err, "user_id", userID)
		return nil, err
	}

	s.logger.Info("pending upload enqueued", "entry_id", entry.ID, "user_id", userID)
	return entry, nil
}

func (s *Service) List(userID string) ([]*PendingUpload, error) {
	return s.repo.ListForUser(userID)
}

// SyncForUser drains one user's queue, typically when their client comes back
// online and explicitly asks for a sync.
func (s *Service) SyncForUser(userID string) (SyncResult, error) {
	entries, err := s.repo.ListForUser(userID)
	if err != nil {
		return SyncResult{}, err
	}
	return s.syncEntries(entries), nil
}

// SyncAll is the periodic worker pass over every pending entry.
func (s *Service) SyncAll() (SyncResult, error) {
	entries, err := s.repo.ListAll()
	if err != nil {
		return SyncResult{}, err
	}
	return s.syncEntries(entries), nil
}

func (s *Service) syncEntries(entries []*PendingUpload) SyncResult {
	var result SyncResult

	for _, entry := range entries {
		// Entries past the retry ceiling are kept for manual inspection but
		// never retried automatically.
		if entry.RetryCount >= s.maxRetries {
			result.Skipped++
			continue
		}

		if err := s.syncEntry(entry); err != nil {
			result.Failed++
			continue
		}
		result.Synced++
	}

	if result.Synced > 0 || result.Failed > 0 {
		s.logger.Info("queue sync pass finished",
			"synced", result.Synced,
			"failed", result.Failed,
			"skipped", result.Skipped)
	}
	return result
}

func (s *Service) syncEntry(entry *PendingUpload) error {
	imagePath := entry.ImagePath
	dto := receipt.CreateReceiptDTO{
		ReceiptDate:       entry.ReceiptDate,
		Category:          entry.Category,
		AmountTTCCents:    0,
		CompanyName:       entry.CompanyName,
		Designation:       entry.Designation,
		DiversAccountCode: entry.DiversAccountCode,
		SalonSubType:      entry.SalonSubType,
		ImagePath:         &imagePath,
		QueueEntryID:      &entry.ID,
	}

	_, err := s.receipts.CreateReceipt(entry.UserID, dto)
	if err != nil && !errors.Is(err, receipt.ErrDuplicateQueueEntry) {
		entry.RetryCount++
		msg := err.Error()
		entry.LastError = &msg
		if updateErr := s.repo.Update(entry); updateErr != nil {
			s.logger.Error("failed to record sync failure", "error", updateErr, "entry_id", entry.ID)
		}
		s.logger.Warn("queue entry sync failed",
			"entry_id", entry.ID,
			"retry_count", entry.RetryCount,
			"error", err)
		return err
	}

	// A duplicate means a previous attempt already created the receipt; the
	// entry is done either way.
	if err := s.repo.Delete(entry.ID); err != nil {
		s.logger.Error("failed to delete synced queue entry", "error", err, "entry_id", entry.ID)
	}
	return nil
}
