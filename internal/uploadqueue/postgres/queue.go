package postgres

import (
	"gorm.io/gorm"

	"github.com/nfrais/notes-de-frais/internal/uploadqueue"
)

type QueueRepository struct {
	db *gorm.DB
}

func NewQueueRepository(db *gorm.DB) uploadqueue.Repository {
	return &QueueRepository{db: db}
}

func (r *QueueRepository) Create(entry *uploadqueue.PendingUpload) error {
	return r.db.Create(entry).Error
}

func (r *QueueRepository) ListForUser(userID string) ([]*uploadqueue.PendingUpload, error) {
	var entries []*uploadqueue.PendingUpload
	err := r.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *QueueRepository) ListAll() ([]*uploadqueue.PendingUpload, error) {
	var entries []*uploadqueue.PendingUpload
	err := r.db.Order("created_at ASC").Find(&entries).Error
	return entries, err
}

func (r *QueueRepository) Update(entry *uploadqueue.PendingUpload) error {
	return r.db.Model(&uploadqueue.PendingUpload{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"retry_count": entry.RetryCount,
			"last_error":  entry.LastError,
		}).Error
}

func (r *QueueRepository) Delete(id string) error {
	result := r.db.Delete(&uploadqueue.PendingUpload{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return uploadqueue.ErrEntryNotFound
	}
	return nil
}
