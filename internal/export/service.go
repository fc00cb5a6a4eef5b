package export

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nfrais/notes-de-frais/internal/category"
	"github.com/nfrais/notes-de-frais/internal/receipt"
	"github.com/nfrais/notes-de-frais/internal/storage"
)

// ExportRecord memoizes a completed export for the history listing.
type ExportRecord struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"column:user_id;not null;index"`
	Month     string    `json:"month" gorm:"column:month;not null"`
	FileName  string    `json:"file_name" gorm:"column:file_name;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

func (ExportRecord) TableName() string {
	return "export_records"
}

// ReceiptSource supplies the month's receipts; the receipt service implements
// it. A fetch failure aborts the export, it cannot proceed without its
// subject data.
type ReceiptSource interface {
	ListForMonth(userID string, month time.Time, cat *category.Key) ([]*receipt.Receipt, error)
}

// ProfileSource resolves the display name used in the sheet header.
type ProfileSource interface {
	GetDisplayName(userID string) (string, error)
}

// Repository persists export records.
type Repository interface {
	CreateRecord(rec *ExportRecord) error
	ListRecords(userID string) ([]*ExportRecord, error)
}

var ErrReceiptsUnavailable = errors.New("could not load receipts for export")

// Service orchestrates a monthly export: fetch, aggregate, render, bundle.
// Each export works on its own receipt snapshot, so concurrent exports need
// no coordination.
type Service struct {
	receipts ReceiptSource
	profiles ProfileSource
	records  Repository
	store    storage.Storage
	logger   *slog.Logger
}

func NewService(receipts ReceiptSource, profiles ProfileSource, records Repository, store storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		receipts: receipts,
		profiles: profiles,
		records:  records,
		store:    store,
		logger:   logger,
	}
}

// ExportMonth produces the complete archive for one user-month.
func (s *Service) ExportMonth(ctx context.Context, userID string, month time.Time, onProgress ProgressFunc) (*Archive, error) {
	receipts, err := s.receipts.ListForMonth(userID, month, nil)
	if err != nil {
		s.logger.Error("export aborted: receipt fetch failed",
			"error", err,
			"user_id", userID,
			"month", month.Format("2006-01"))
		return nil, ErrReceiptsUnavailable
	}

	userName, err := s.profiles.GetDisplayName(userID)
	if err != nil {
		// header falls back to blank; a missing profile is not worth
		// blocking the export
		s.logger.Warn("could not resolve display name", "error", err, "user_id", userID)
		userName = ""
	}

	data := MonthlyExportData{
		Month:    month,
		UserName: userName,
		Receipts: receipts,
	}

	archive, err := BuildArchive(ctx, data, s.store, onProgress, s.logger)
	if err != nil {
		s.logger.Error("export failed", "error", err, "user_id", userID, "month", month.Format("2006-01"))
		return nil, err
	}

	record := &ExportRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Month:     month.Format("2006-01"),
		FileName:  SpreadsheetFilename(month),
		CreatedAt: time.Now(),
	}
	if err := s.records.CreateRecord(record); err != nil {
		// the archive is already complete; history is best-effort
		s.logger.Warn("failed to record export", "error", err, "user_id", userID)
	}

	s.logger.Info("export completed",
		"user_id", userID,
		"month", record.Month,
		"receipts", len(receipts),
		"images_total", archive.ImagesTotal,
		"images_added", archive.ImagesAdded)

	return archive, nil
}

// ListRecords returns the user's export history, newest first.
func (s *Service) ListRecords(userID string) ([]*ExportRecord, error) {
	records, err := s.records.ListRecords(userID)
	if err != nil {
		s.logger.Error("failed to list export records", "error", err, "user_id", userID)
		return nil, err
	}
	return records, nil
}
