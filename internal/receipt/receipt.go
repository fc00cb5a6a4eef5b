package receipt

import (
	"time"

	"github.com/nfrais/notes-de-frais/internal/category"
)

// Scan status lifecycle, set by the OCR pipeline and read by the export
// engine only to surface verification warnings.
const (
	ScanStatusQueued     = "queued"
	ScanStatusProcessing = "processing"
	ScanStatusCompleted  = "completed"
	ScanStatusFailed     = "failed"
)

// Receipt is one scanned or manually entered expense record. Amounts are
// stored in cents. The conditional fields are meaningful only for the
// categories whose Config flags them; everywhere else they stay nil.
type Receipt struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"column:user_id;not null;index"`

	// QueueEntryID is set when the receipt was created by the offline upload
	// queue; the unique index makes retried queue entries idempotent.
	QueueEntryID *string `json:"-" gorm:"column:queue_entry_id;uniqueIndex"`

	ReceiptDate       time.Time    `json:"receipt_date" gorm:"column:receipt_date;type:date;not null;index"`
	Category          category.Key `json:"category" gorm:"column:category;not null"`
	AmountTTCCents    int64        `json:"amount_ttc_cents" gorm:"column:amount_ttc_cents;not null"`
	AmountTVACents    *int64       `json:"amount_tva_cents" gorm:"column:amount_tva_cents"`
	CompanyName       *string      `json:"company_name,omitempty" gorm:"column:company_name"`
	Designation       *string      `json:"designation,omitempty" gorm:"column:designation"`
	DiversAccountCode *string      `json:"divers_account_code,omitempty" gorm:"column:divers_account_code"`
	SalonSubType      *string      `json:"salon_sub_type,omitempty" gorm:"column:salon_sub_type"`
	ImagePath         *string      `json:"image_path,omitempty" gorm:"column:image_path"`
	ScanStatus        string       `json:"scan_status" gorm:"column:scan_status;default:completed"`
	OCRRawResult      *string      `json:"ocr_raw_result,omitempty" gorm:"column:ocr_raw_result"`
	IsVerified        bool         `json:"is_verified" gorm:"column:is_verified;default:false"`
	CreatedAt         time.Time    `json:"created_at" gorm:"column:created_at"`
	UpdatedAt         time.Time    `json:"updated_at" gorm:"column:updated_at"`
}

func (Receipt) TableName() string {
	return "receipts"
}

// TVACents returns the VAT amount, treating absent as zero.
func (r *Receipt) TVACents() int64 {
	if r.AmountTVACents == nil {
		return 0
	}
	return *r.AmountTVACents
}

// HasImage reports whether a source image is attached.
func (r *Receipt) HasImage() bool {
	return r.ImagePath != nil && *r.ImagePath != ""
}

// NeedsVerificationWarning reports whether the export UI should flag this
// receipt as unconfirmed OCR output.
func (r *Receipt) NeedsVerificationWarning() bool {
	return !r.IsVerified && (r.ScanStatus == ScanStatusCompleted || r.ScanStatus == ScanStatusFailed)
}

// InMonth reports whether the receipt date falls in the same calendar month
// as the given time.
func (r *Receipt) InMonth(month time.Time) bool {
	return r.ReceiptDate.Year() == month.Year() && r.ReceiptDate.Month() == month.Month()
}
