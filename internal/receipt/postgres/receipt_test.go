package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nfrais/notes-de-frais/internal/category"
	"github.com/nfrais/notes-de-frais/internal/receipt"
)

func TestReceiptRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ReceiptRepository Suite")
}

type SQLiteReceipt struct {
	ID                string    `gorm:"primaryKey"`
	UserID            string    `gorm:"column:user_id;not null;index"`
	QueueEntryID      *string   `gorm:"column:queue_entry_id;uniqueIndex"`
	ReceiptDate       time.Time `gorm:"column:receipt_date;not null;index"`
	Category          string    `gorm:"column:category;not null"`
	AmountTTCCents    int64     `gorm:"column:amount_ttc_cents;not null"`
	AmountTVACents    *int64    `gorm:"column:amount_tva_cents"`
	CompanyName       *string   `gorm:"column:company_name"`
	Designation       *string   `gorm:"column:designation"`
	DiversAccountCode *string   `gorm:"column:divers_account_code"`
	SalonSubType      *string   `gorm:"column:salon_sub_type"`
	ImagePath         *string   `gorm:"column:image_path"`
	ScanStatus        string    `gorm:"column:scan_status;default:'completed'"`
	OCRRawResult      *string   `gorm:"column:ocr_raw_result"`
	IsVerified        bool      `gorm:"column:is_verified;default:false"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (SQLiteReceipt) TableName() string {
	return "receipts"
}

var _ = Describe("ReceiptRepository", func() {
	var (
		db   *gorm.DB
		repo receipt.Repository
	)

	march := func(day int) time.Time {
		return time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC)
	}

	newReceipt := func(id, userID string, date time.Time, cat category.Key) *receipt.Receipt {
		now := time.Now()
		return &receipt.Receipt{
			ID:             id,
			UserID:         userID,
			ReceiptDate:    date,
			Category:       cat,
			AmountTTCCents: 8000,
			ScanStatus:     receipt.ScanStatusCompleted,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteReceipt{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewReceiptRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Create and GetByID", func() {
		It("round-trips a receipt", func() {
			rec := newReceipt("r-1", "user-1", march(5), category.Gasoil)
			tva := int64(1600)
			rec.AmountTVACents = &tva

			Expect(repo.Create(rec)).To(Succeed())

			got, err := repo.GetByID("r-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.UserID).To(Equal("user-1"))
			Expect(got.Category).To(Equal(category.Gasoil))
			Expect(*got.AmountTVACents).To(Equal(int64(1600)))
		})

		It("returns not found for a missing id", func() {
			_, err := repo.GetByID("missing")
			Expect(err).To(MatchError(receipt.ErrReceiptNotFound))
		})
	})

	Describe("GetByQueueEntryID", func() {
		It("finds the receipt a queue entry produced", func() {
			rec := newReceipt("r-1", "user-1", march(5), category.Gasoil)
			entryID := "q-1"
			rec.QueueEntryID = &entryID
			Expect(repo.Create(rec)).To(Succeed())

			got, err := repo.GetByQueueEntryID("q-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal("r-1"))
		})

		It("returns not found for an unsynced entry", func() {
			_, err := repo.GetByQueueEntryID("q-unknown")
			Expect(err).To(MatchError(receipt.ErrReceiptNotFound))
		})

		It("refuses a second receipt for the same queue entry", func() {
			entryID := "q-1"
			first := newReceipt("r-1", "user-1", march(5), category.Gasoil)
			first.QueueEntryID = &entryID
			Expect(repo.Create(first)).To(Succeed())

			second := newReceipt("r-2", "user-1", march(6), category.Gasoil)
			second.QueueEntryID = &entryID
			Expect(repo.Create(second)).NotTo(Succeed())
		})
	})

	Describe("ListForMonth", func() {
		BeforeEach(func() {
			older := newReceipt("r-early", "user-1", march(20), category.Gasoil)
			older.CreatedAt = time.Date(2026, time.March, 20, 10, 0, 0, 0, time.UTC)
			later := newReceipt("r-late", "user-1", march(20), category.Gasoil)
			later.CreatedAt = time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC)

			for _, rec := range []*receipt.Receipt{
				newReceipt("r-mar-05", "user-1", march(5), category.HotelsTransport),
				later,
				older,
				newReceipt("r-feb", "user-1", time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), category.Gasoil),
				newReceipt("r-apr", "user-1", time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), category.Gasoil),
				newReceipt("r-other-user", "user-2", march(5), category.Gasoil),
			} {
				Expect(repo.Create(rec)).To(Succeed())
			}
		})

		listIDs := func(cat *category.Key) []string {
			receipts, err := repo.ListForMonth("user-1",
				march(1), march(31), cat)
			Expect(err).NotTo(HaveOccurred())
			ids := make([]string, 0, len(receipts))
			for _, r := range receipts {
				ids = append(ids, r.ID)
			}
			return ids
		}

		It("keeps only the user's receipts inside the month bounds", func() {
			Expect(listIDs(nil)).NotTo(ContainElements("r-feb", "r-apr", "r-other-user"))
		})

		It("orders by receipt date then creation time", func() {
			Expect(listIDs(nil)).To(Equal([]string{"r-mar-05", "r-early", "r-late"}))
		})

		It("filters by category", func() {
			cat := category.HotelsTransport
			Expect(listIDs(&cat)).To(Equal([]string{"r-mar-05"}))
		})
	})

	Describe("Update", func() {
		It("persists field changes", func() {
			rec := newReceipt("r-1", "user-1", march(5), category.Gasoil)
			Expect(repo.Create(rec)).To(Succeed())

			rec.AmountTTCCents = 9999
			rec.IsVerified = true
			Expect(repo.Update(rec)).To(Succeed())

			got, err := repo.GetByID("r-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.AmountTTCCents).To(Equal(int64(9999)))
			Expect(got.IsVerified).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("removes the row", func() {
			Expect(repo.Create(newReceipt("r-1", "user-1", march(5), category.Gasoil))).To(Succeed())
			Expect(repo.Delete("r-1")).To(Succeed())

			_, err := repo.GetByID("r-1")
			Expect(err).To(MatchError(receipt.ErrReceiptNotFound))
		})

		It("returns not found when nothing was deleted", func() {
			Expect(repo.Delete("missing")).To(MatchError(receipt.ErrReceiptNotFound))
		})
	})
})
