package export_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nfrais/notes-de-frais/internal/category"
	"github.com/nfrais/notes-de-frais/internal/export"
	"github.com/nfrais/notes-de-frais/internal/receipt"
)

func TestExport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Export Suite")
}

func day(month time.Time, d int) time.Time {
	return time.Date(month.Year(), month.Month(), d, 0, 0, 0, 0, time.UTC)
}

func rec(month time.Time, d int, cat category.Key, ttc int64, tva *int64) *receipt.Receipt {
	return &receipt.Receipt{
		ID:             "r",
		UserID:         "u",
		ReceiptDate:    day(month, d),
		Category:       cat,
		AmountTTCCents: ttc,
		AmountTVACents: tva,
	}
}

func cents(v int64) *int64 { return &v }
func str(s string) *string { return &s }

var _ = Describe("AggregateByDay", func() {
	month := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	It("builds a row for every calendar day of the month", func() {
		grid := export.AggregateByDay(nil, month)
		Expect(grid.DaysInMonth).To(Equal(31))
		Expect(grid.Days).To(HaveLen(31))
		Expect(grid.Days[1].Cell(category.Gasoil)).To(BeNil())
	})

	It("handles February and leap years", func() {
		Expect(export.DaysInMonth(time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC))).To(Equal(28))
		Expect(export.DaysInMonth(time.Date(2028, time.February, 1, 0, 0, 0, 0, time.UTC))).To(Equal(29))
	})

	It("sums same-day receipts of the same category", func() {
		receipts := []*receipt.Receipt{
			rec(month, 5, category.Gasoil, 5000, cents(1000)),
			rec(month, 5, category.Gasoil, 3000, cents(600)),
		}

		grid := export.AggregateByDay(receipts, month)
		cell := grid.Days[5].Cell(category.Gasoil)
		Expect(cell).NotTo(BeNil())
		Expect(cell.TTCCents).To(Equal(int64(8000)))
		Expect(cell.TVACents).To(Equal(int64(1600)))
	})

	It("keeps categories on the same day separate", func() {
		receipts := []*receipt.Receipt{
			rec(month, 5, category.Gasoil, 5000, cents(1000)),
			rec(month, 5, category.RestaurantsAutoroute, 1850, cents(168)),
		}

		grid := export.AggregateByDay(receipts, month)
		Expect(grid.Days[5].Cell(category.Gasoil).TTCCents).To(Equal(int64(5000)))
		Expect(grid.Days[5].Cell(category.RestaurantsAutoroute).TTCCents).To(Equal(int64(1850)))
	})

	It("excludes receipts dated outside the month", func() {
		other := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
		receipts := []*receipt.Receipt{
			rec(other, 1, category.Gasoil, 5000, cents(1000)),
			rec(month, 31, category.Gasoil, 2000, cents(400)),
		}

		grid := export.AggregateByDay(receipts, month)
		Expect(grid.Days[1].Cell(category.Gasoil)).To(BeNil())
		Expect(grid.Days[31].Cell(category.Gasoil).TTCCents).To(Equal(int64(2000)))
	})

	It("drops the VAT column for categories that do not track it", func() {
		r := rec(month, 10, category.HotelsTransport, 9900, nil)
		grid := export.AggregateByDay([]*receipt.Receipt{r}, month)
		cell := grid.Days[10].Cell(category.HotelsTransport)
		Expect(cell.TTCCents).To(Equal(int64(9900)))
		Expect(cell.TVACents).To(Equal(int64(0)))
	})

	It("joins distinct company names with a slash separator", func() {
		a := rec(month, 8, category.MissionReceptions, 1000, cents(91))
		a.CompanyName = str("Acme")
		b := rec(month, 8, category.MissionReceptions, 2000, cents(182))
		b.CompanyName = str("Globex")
		c := rec(month, 8, category.MissionReceptions, 500, cents(45))
		c.CompanyName = str("Acme")

		grid := export.AggregateByDay([]*receipt.Receipt{a, b, c}, month)
		cell := grid.Days[8].Cell(category.MissionReceptions)
		Expect(cell.Note).To(Equal("Acme / Globex"))
		Expect(cell.TTCCents).To(Equal(int64(3500)))
	})

	It("annotates divers cells with the designation", func() {
		r := rec(month, 20, category.Divers, 4200, cents(700))
		r.Designation = str("Outillage atelier")

		grid := export.AggregateByDay([]*receipt.Receipt{r}, month)
		Expect(grid.Days[20].Cell(category.Divers).Note).To(Equal("Outillage atelier"))
	})
})

var _ = Describe("BuildAccountSummary", func() {
	month := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	It("applies the 80% deductible rule to fuel", func() {
		receipts := []*receipt.Receipt{
			rec(month, 5, category.Gasoil, 8000, cents(1600)),
		}

		rows := export.BuildAccountSummary(receipts, month)
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].Code).To(Equal("6061400"))
		Expect(rows[0].TTCCents).To(Equal(int64(8000)))
		Expect(rows[0].TVACents).To(Equal(int64(1600)))
		Expect(rows[0].TVA80Cents).To(Equal(int64(1280)))
		Expect(rows[0].HTCents).To(Equal(int64(6720)))
	})

	It("computes HT as TTC minus full TVA for other categories", func() {
		receipts := []*receipt.Receipt{
			rec(month, 5, category.RestaurantsAutoroute, 1850, cents(168)),
		}

		rows := export.BuildAccountSummary(receipts, month)
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].TVA80Cents).To(Equal(int64(0)))
		Expect(rows[0].HTCents).To(Equal(int64(1682)))
	})

	It("suppresses rows for categories without receipts", func() {
		receipts := []*receipt.Receipt{
			rec(month, 3, category.FournituresBureaux, 2399, cents(400)),
		}

		rows := export.BuildAccountSummary(receipts, month)
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].Code).To(Equal("6064000"))
	})

	It("emits one row per divers sub-account in first-seen order", func() {
		a := rec(month, 2, category.Divers, 1000, cents(100))
		a.DiversAccountCode = str("6063000")
		b := rec(month, 4, category.Divers, 2000, cents(200))
		b.DiversAccountCode = str("6276000")
		c := rec(month, 9, category.Divers, 500, cents(50))
		c.DiversAccountCode = str("6063000")

		rows := export.BuildAccountSummary([]*receipt.Receipt{a, b, c}, month)
		Expect(rows).To(HaveLen(2))
		Expect(rows[0].Code).To(Equal("6063000"))
		Expect(rows[0].Label).To(Equal("Outillage"))
		Expect(rows[0].TTCCents).To(Equal(int64(1500)))
		Expect(rows[1].Code).To(Equal("6276000"))
		Expect(rows[1].Label).To(Equal("Frais bancaires"))
	})

	It("books divers receipts without a sub-account on the category default", func() {
		r := rec(month, 2, category.Divers, 1000, cents(100))

		rows := export.BuildAccountSummary([]*receipt.Receipt{r}, month)
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].Code).To(Equal("6068000"))
	})

	It("splits salon receipts by sub-type with their own account codes", func() {
		a := rec(month, 25, category.Salons, 35000, cents(5833))
		a.SalonSubType = str("sirha")
		b := rec(month, 26, category.Salons, 12000, cents(2000))

		rows := export.BuildAccountSummary([]*receipt.Receipt{a, b}, month)
		Expect(rows).To(HaveLen(2))
		Expect(rows[0].Code).To(Equal("6233001"))
		Expect(rows[0].Section).To(Equal("9500"))
		Expect(rows[1].Code).To(Equal("6233000"))
	})

	It("is deterministic for a fixed input ordering", func() {
		a := rec(month, 2, category.Divers, 1000, cents(100))
		a.DiversAccountCode = str("6063000")
		b := rec(month, 4, category.Divers, 2000, cents(200))
		b.DiversAccountCode = str("6276000")
		input := []*receipt.Receipt{a, b}

		first := export.BuildAccountSummary(input, month)
		for i := 0; i < 10; i++ {
			Expect(export.BuildAccountSummary(input, month)).To(Equal(first))
		}
	})
})

var _ = Describe("SummaryTotals", func() {
	It("sums each column independently", func() {
		rows := []export.SummaryRow{
			{TTCCents: 8000, TVACents: 1600, TVA80Cents: 1280, HTCents: 6720},
			{TTCCents: 1850, TVACents: 168, HTCents: 1682},
		}

		total := export.SummaryTotals(rows)
		Expect(total.Label).To(Equal("TOTAL"))
		Expect(total.TTCCents).To(Equal(int64(9850)))
		Expect(total.TVACents).To(Equal(int64(1768)))
		Expect(total.TVA80Cents).To(Equal(int64(1280)))
		Expect(total.HTCents).To(Equal(int64(8402)))
	})
})
