package receipt

import (
	"errors"
	"time"

	"github.com/nfrais/notes-de-frais/internal/category"
)

const dateLayout = "2006-01-02"

// CreateReceiptDTO is the request payload for creating a receipt. Amounts are
// cents; the date is a day-precision string.
type CreateReceiptDTO struct {
	ReceiptDate       string       `json:"receipt_date"`
	Category          category.Key `json:"category"`
	AmountTTCCents    int64        `json:"amount_ttc_cents"`
	AmountTVACents    *int64       `json:"amount_tva_cents,omitempty"`
	CompanyName       *string      `json:"company_name,omitempty"`
	Designation       *string      `json:"designation,omitempty"`
	DiversAccountCode *string      `json:"divers_account_code,omitempty"`
	SalonSubType      *string      `json:"salon_sub_type,omitempty"`
	ImagePath         *string      `json:"image_path,omitempty"`

	// QueueEntryID is set by the offline queue sync path only.
	QueueEntryID *string `json:"queue_entry_id,omitempty"`
}

// Validate checks the payload against the category registry. The VAT
// invariant is enforced here: non-VAT categories must not carry a VAT amount,
// and conditional fields are rejected for categories they do not apply to.
func (dto CreateReceiptDTO) Validate() error {
	if dto.ReceiptDate == "" {
		return errors.New("receipt date is required")
	}
	if _, err := time.Parse(dateLayout, dto.ReceiptDate); err != nil {
		return errors.New("receipt date must be formatted YYYY-MM-DD")
	}
	if !category.IsValid(dto.Category) {
		return errors.New("unknown category")
	}
	if dto.AmountTTCCents < 0 {
		return errors.New("amount must not be negative")
	}

	cfg := category.Get(dto.Category)

	if !cfg.TracksTVA && dto.AmountTVACents != nil {
		return errors.New("category does not track TVA; amount_tva_cents must be absent")
	}
	if dto.AmountTVACents != nil && *dto.AmountTVACents < 0 {
		return errors.New("TVA amount must not be negative")
	}
	if dto.CompanyName != nil && !cfg.HasCompanyName {
		return errors.New("company_name applies only to mission / réceptions receipts")
	}
	if dto.Designation != nil && !cfg.HasDesignation {
		return errors.New("designation applies only to divers receipts")
	}
	if dto.DiversAccountCode != nil && !cfg.HasDiversAccountCode {
		return errors.New("divers_account_code applies only to divers receipts")
	}
	if dto.SalonSubType != nil {
		if !cfg.HasSalonSubType {
			return errors.New("salon_sub_type applies only to salons receipts")
		}
		if !category.IsValidSalonSubType(*dto.SalonSubType) {
			return errors.New("unknown salon sub-type")
		}
	}

	return nil
}

// Date returns the parsed receipt date. Call Validate first.
func (dto CreateReceiptDTO) Date() time.Time {
	d, _ := time.Parse(dateLayout, dto.ReceiptDate)
	return d
}

// UpdateReceiptDTO carries a partial edit; nil fields are left untouched.
type UpdateReceiptDTO struct {
	ReceiptDate       *string       `json:"receipt_date,omitempty"`
	Category          *category.Key `json:"category,omitempty"`
	AmountTTCCents    *int64        `json:"amount_ttc_cents,omitempty"`
	AmountTVACents    *int64        `json:"amount_tva_cents,omitempty"`
	ClearTVA          bool          `json:"clear_tva,omitempty"`
	CompanyName       *string       `json:"company_name,omitempty"`
	Designation       *string       `json:"designation,omitempty"`
	DiversAccountCode *string       `json:"divers_account_code,omitempty"`
	SalonSubType      *string       `json:"salon_sub_type,omitempty"`
	IsVerified        *bool         `json:"is_verified,omitempty"`
}

// ListReceiptsQuery filters the receipt listing.
type ListReceiptsQuery struct {
	Month    string        // YYYY-MM, required
	Category *category.Key // optional
}

const monthLayout = "2006-01"

func (q ListReceiptsQuery) Validate() error {
	if q.Month == "" {
		return errors.New("month is required")
	}
	if _, err := time.Parse(monthLayout, q.Month); err != nil {
		return errors.New("month must be formatted YYYY-MM")
	}
	if q.Category != nil && !category.IsValid(*q.Category) {
		return errors.New("unknown category")
	}
	return nil
}

// MonthTime returns the first day of the queried month. Call Validate first.
func (q ListReceiptsQuery) MonthTime() time.Time {
	m, _ := time.Parse(monthLayout, q.Month)
	return m
}

// Domain errors
var (
	ErrReceiptNotFound     = errors.New("receipt not found")
	ErrUnauthorizedAccess  = errors.New("unauthorized access to receipt")
	ErrDuplicateQueueEntry = errors.New("queue entry already produced a receipt")
)
