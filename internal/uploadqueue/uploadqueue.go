package uploadqueue

import (
	"errors"
	"time"

	"github.com/nfrais/notes-de-frais/internal/category"
)

// PendingUpload is a receipt captured while the client was offline. The entry
// keeps everything the user selected at capture time; the sync pass turns it
// into a real receipt with a zero amount and a queued scan.
type PendingUpload struct {
	ID                string       `json:"id" gorm:"primaryKey"`
	UserID            string       `json:"user_id" gorm:"column:user_id;not null;index"`
	ReceiptDate       string       `json:"receipt_date" gorm:"column:receipt_date;not null"`
	Category          category.Key `json:"category" gorm:"column:category;not null"`
	CompanyName       *string      `json:"company_name,omitempty" gorm:"column:company_name"`
	Designation       *string      `json:"designation,omitempty" gorm:"column:designation"`
	DiversAccountCode *string      `json:"divers_account_code,omitempty" gorm:"column:divers_account_code"`
	SalonSubType      *string      `json:"salon_sub_type,omitempty" gorm:"column:salon_sub_type"`
	ImagePath         string       `json:"image_path" gorm:"column:image_path;not null"`
	RetryCount        int          `json:"retry_count" gorm:"column:retry_count;not null;default:0"`
	LastError         *string      `json:"last_error,omitempty" gorm:"column:last_error"`
	CreatedAt         time.Time    `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time    `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (PendingUpload) TableName() string {
	return "pending_uploads"
}

type Repository interface {
	Create(entry *PendingUpload) error
	ListForUser(userID string) ([]*PendingUpload, error)
	ListAll() ([]*PendingUpload, error)
	Update(entry *PendingUpload) error
	Delete(id string) error
}

var ErrEntryNotFound = errors.New("queue entry not found")
