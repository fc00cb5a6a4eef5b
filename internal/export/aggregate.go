package export

import (
	"time"

	"github.com/nfrais/notes-de-frais/internal/category"
	"github.com/nfrais/notes-de-frais/internal/money"
	"github.com/nfrais/notes-de-frais/internal/receipt"
)

// MonthlyExportData is one export request: a target month, the display name
// for the sheet header and the receipts to aggregate. It is built fresh per
// request and never persisted.
type MonthlyExportData struct {
	Month    time.Time
	UserName string
	Receipts []*receipt.Receipt
}

// DayCell accumulates one category's amounts for one day of the month. Note
// carries the combined free-text annotation (company names for mission /
// réceptions, designations for divers) joined with " / ".
type DayCell struct {
	TTCCents int64
	TVACents int64
	Note     string
}

// DayRow is the per-category cell set for a single day.
type DayRow struct {
	Cells map[category.Key]*DayCell
}

func newDayRow() *DayRow {
	return &DayRow{Cells: make(map[category.Key]*DayCell)}
}

// Cell returns the cell for a category, or nil when the day has no receipts
// in it.
func (r *DayRow) Cell(key category.Key) *DayCell {
	return r.Cells[key]
}

func (r *DayRow) cell(key category.Key) *DayCell {
	c, ok := r.Cells[key]
	if !ok {
		c = &DayCell{}
		r.Cells[key] = c
	}
	return c
}

// DayGrid is the aggregation result consumed by the fill-in sheet: one row
// per calendar day of the target month, every day present even when empty.
type DayGrid struct {
	Days        map[int]*DayRow
	DaysInMonth int
}

// DaysInMonth returns the number of calendar days in the month containing t.
func DaysInMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}

// AggregateByDay groups the receipts of the target month into the day grid.
// Receipts dated outside the month are excluded; there is no cross-month
// spillover. Same-day receipts accumulate both their sums and their text
// annotations.
func AggregateByDay(receipts []*receipt.Receipt, month time.Time) *DayGrid {
	n := DaysInMonth(month)
	grid := &DayGrid{
		Days:        make(map[int]*DayRow, n),
		DaysInMonth: n,
	}
	for day := 1; day <= n; day++ {
		grid.Days[day] = newDayRow()
	}

	for _, rec := range receipts {
		if !rec.InMonth(month) {
			continue
		}

		cfg := category.Get(rec.Category)
		cell := grid.Days[rec.ReceiptDate.Day()].cell(rec.Category)

		cell.TTCCents += rec.AmountTTCCents
		if cfg.TracksTVA {
			cell.TVACents += rec.TVACents()
		}

		if note := annotationFor(rec, cfg); note != "" {
			cell.appendNote(note)
		}
	}

	return grid
}

// annotationFor picks the free-text side field the category carries.
func annotationFor(rec *receipt.Receipt, cfg category.Config) string {
	if cfg.HasCompanyName && rec.CompanyName != nil {
		return *rec.CompanyName
	}
	if cfg.HasDesignation && rec.Designation != nil {
		return *rec.Designation
	}
	return ""
}

// appendNote joins distinct values with " / ", the single display string the
// paper form expects.
func (c *DayCell) appendNote(note string) {
	if c.Note == "" {
		c.Note = note
		return
	}
	for _, existing := range splitNote(c.Note) {
		if existing == note {
			return
		}
	}
	c.Note = c.Note + " / " + note
}

func splitNote(s string) []string {
	var parts []string
	start := 0
	for i := 0; i+3 <= len(s); i++ {
		if s[i:i+3] == " / " {
			parts = append(parts, s[start:i])
			start = i + 3
		}
	}
	return append(parts, s[start:])
}

// SummaryRow is one line of the accounting sheet: an account with its summed
// amounts in cents. TVA80Cents is populated for the gasoil row only.
type SummaryRow struct {
	Code       string
	Label      string
	Section    string
	TTCCents   int64
	TVACents   int64
	TVA80Cents int64
	HTCents    int64
}

// BuildAccountSummary produces the accounting rows for the target month: one
// row per standard category with receipts, one row per divers sub-account
// actually used, one row per salon sub-type actually used. Categories and
// sub-accounts without receipts emit no row.
//
// The 80% deductible VAT figure is computed for the gasoil category only.
// CategoryConfig carries a general TVADeductionRate, but generalizing the
// rule here would change observed output for a hypothetical future category;
// the special case stays explicit.
func BuildAccountSummary(receipts []*receipt.Receipt, month time.Time) []SummaryRow {
	var inMonth []*receipt.Receipt
	for _, rec := range receipts {
		if rec.InMonth(month) {
			inMonth = append(inMonth, rec)
		}
	}

	var rows []SummaryRow

	for _, key := range category.Standard() {
		cfg := category.Get(key)

		var ttc, tva int64
		count := 0
		for _, rec := range inMonth {
			if rec.Category != key {
				continue
			}
			count++
			ttc += rec.AmountTTCCents
			tva += rec.TVACents()
		}
		if count == 0 {
			continue
		}

		row := SummaryRow{
			Code:     cfg.AccountCode,
			Label:    cfg.Label,
			Section:  cfg.Section,
			TTCCents: ttc,
			TVACents: tva,
		}
		if key == category.Gasoil {
			row.TVA80Cents = money.RoundCents(tva, 0.8)
			row.HTCents = ttc - row.TVA80Cents
		} else {
			row.HTCents = ttc - tva
		}
		rows = append(rows, row)
	}

	rows = append(rows, diversRows(inMonth)...)
	rows = append(rows, salonRows(inMonth)...)

	return rows
}

// diversRows groups divers receipts by sub-account code in first-seen order,
// falling back to the category default code when none was selected.
func diversRows(receipts []*receipt.Receipt) []SummaryRow {
	defaultCode := category.Get(category.Divers).AccountCode

	var codes []string
	sums := make(map[string]*SummaryRow)

	for _, rec := range receipts {
		if rec.Category != category.Divers {
			continue
		}

		code := defaultCode
		if rec.DiversAccountCode != nil && *rec.DiversAccountCode != "" {
			code = *rec.DiversAccountCode
		}

		row, ok := sums[code]
		if !ok {
			sub := category.DiversSubAccountFor(code)
			row = &SummaryRow{Code: code, Label: sub.Label, Section: sub.Section}
			sums[code] = row
			codes = append(codes, code)
		}
		row.TTCCents += rec.AmountTTCCents
		row.TVACents += rec.TVACents()
	}

	rows := make([]SummaryRow, 0, len(codes))
	for _, code := range codes {
		row := sums[code]
		row.HTCents = row.TTCCents - row.TVACents
		rows = append(rows, *row)
	}
	return rows
}

// salonRows groups salon receipts by sub-type in first-seen order; receipts
// without a sub-type land on the plain "salons" account.
func salonRows(receipts []*receipt.Receipt) []SummaryRow {
	var keys []string
	sums := make(map[string]*SummaryRow)

	for _, rec := range receipts {
		if rec.Category != category.Salons {
			continue
		}

		key := "salons"
		if rec.SalonSubType != nil && *rec.SalonSubType != "" {
			key = *rec.SalonSubType
		}

		row, ok := sums[key]
		if !ok {
			st := category.SalonSubTypeFor(key)
			row = &SummaryRow{Code: st.AccountCode, Label: st.Label, Section: st.Section}
			sums[key] = row
			keys = append(keys, key)
		}
		row.TTCCents += rec.AmountTTCCents
		row.TVACents += rec.TVACents()
	}

	rows := make([]SummaryRow, 0, len(keys))
	for _, key := range keys {
		row := sums[key]
		row.HTCents = row.TTCCents - row.TVACents
		rows = append(rows, *row)
	}
	return rows
}

// SummaryTotals sums every emitted row's columns independently.
func SummaryTotals(rows []SummaryRow) SummaryRow {
	total := SummaryRow{Label: "TOTAL"}
	for _, row := range rows {
		total.TTCCents += row.TTCCents
		total.TVACents += row.TVACents
		total.TVA80Cents += row.TVA80Cents
		total.HTCents += row.HTCents
	}
	return total
}
