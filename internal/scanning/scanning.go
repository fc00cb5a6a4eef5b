package scanning

import "time"

const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Job tracks one OCR attempt against a receipt image. The receipt keeps its
// own scan_status; the job row is the audit trail for retries and failures.
type Job struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	ReceiptID    string    `json:"receipt_id" gorm:"column:receipt_id;not null;index"`
	ImagePath    string    `json:"image_path" gorm:"column:image_path;not null"`
	Status       string    `json:"status" gorm:"column:status;not null;default:queued"`
	ErrorMessage *string   `json:"error_message,omitempty" gorm:"column:error_message"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Job) TableName() string {
	return "scan_jobs"
}

type Repository interface {
	Create(job *Job) error
	Update(job *Job) error
	ListPending(limit int) ([]*Job, error)
}
