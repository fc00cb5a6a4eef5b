package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/nfrais/notes-de-frais/internal/category"
	"github.com/nfrais/notes-de-frais/internal/receipt"
)

// ReceiptRepository implements the receipt.Repository interface using GORM
type ReceiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) receipt.Repository {
	return &ReceiptRepository{db: db}
}

func (r *ReceiptRepository) Create(rec *receipt.Receipt) error {
	return r.db.Create(rec).Error
}

func (r *ReceiptRepository) GetByID(id string) (*receipt.Receipt, error) {
	var rec receipt.Receipt
	err := r.db.Where("id = ?", id).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, receipt.ErrReceiptNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *ReceiptRepository) GetByQueueEntryID(queueEntryID string) (*receipt.Receipt, error) {
	var rec receipt.Receipt
	err := r.db.Where("queue_entry_id = ?", queueEntryID).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, receipt.ErrReceiptNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ListForMonth returns the user's receipts between monthStart and monthEnd
// inclusive, ordered by receipt date then creation time so export sequence
// numbers stay stable across runs.
func (r *ReceiptRepository) ListForMonth(userID string, monthStart, monthEnd time.Time, cat *category.Key) ([]*receipt.Receipt, error) {
	var receipts []*receipt.Receipt
	q := r.db.Where("user_id = ?", userID).
		Where("receipt_date >= ? AND receipt_date <= ?", monthStart, monthEnd)
	if cat != nil {
		q = q.Where("category = ?", *cat)
	}
	err := q.Order("receipt_date ASC").
		Order("created_at ASC").
		Find(&receipts).Error
	return receipts, err
}

func (r *ReceiptRepository) Update(rec *receipt.Receipt) error {
	rec.UpdatedAt = time.Now()
	return r.db.Save(rec).Error
}

func (r *ReceiptRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&receipt.Receipt{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return receipt.ErrReceiptNotFound
	}
	return nil
}
