package postgres

import (
	"gorm.io/gorm"

	"github.com/nfrais/notes-de-frais/internal/export"
)

// ExportRepository implements the export.Repository interface using GORM
type ExportRepository struct {
	db *gorm.DB
}

func NewExportRepository(db *gorm.DB) export.Repository {
	return &ExportRepository{db: db}
}

func (r *ExportRepository) CreateRecord(rec *export.ExportRecord) error {
	return r.db.Create(rec).Error
}

func (r *ExportRepository) ListRecords(userID string) ([]*export.ExportRecord, error) {
	var records []*export.ExportRecord
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}
