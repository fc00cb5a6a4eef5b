package postgres

import (
	"gorm.io/gorm"

	"github.com/nfrais/notes-de-frais/internal/scanning"
)

type ScanJobRepository struct {
	db *gorm.DB
}

func NewScanJobRepository(db *gorm.DB) scanning.Repository {
	return &ScanJobRepository{db: db}
}

func (r *ScanJobRepository) Create(job *scanning.Job) error {
	return r.db.Create(job).Error
}

// Update touches only the fields the pipeline mutates, so the row keeps its
// original timestamps.
func (r *ScanJobRepository) Update(job *scanning.Job) error {
	return r.db.Model(&scanning.Job{}).
		Where("id = ?", job.ID).
		Updates(map[string]interface{}{
			"status":        job.Status,
			"error_message": job.ErrorMessage,
		}).Error
}

func (r *ScanJobRepository) ListPending(limit int) ([]*scanning.Job, error) {
	var jobs []*scanning.Job
	q := r.db.Where("status = ?", scanning.JobStatusQueued).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&jobs).Error
	return jobs, err
}
