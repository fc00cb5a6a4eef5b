package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nfrais/notes-de-frais/internal/category"
	"github.com/nfrais/notes-de-frais/internal/money"
)

// Sheet names are part of the external contract with the accountants.
const (
	SheetFillIn = "TABLEAU A REMPLIR"
	SheetCompta = "TABLEAU COMPTA"
)

// Fixed column assignment of the fill-in sheet (A=day .. R=salons TVA).
// Column I stays blank; the layout mirrors the pre-printed paper form and is
// not free to rearrange.
type columnGroup struct {
	Key     category.Key
	Header  string
	TTCCol  string
	TVACol  string // empty when the category's VAT column is absent
	NoteCol string // empty unless the category carries a free-text column
}

var columnGroups = []columnGroup{
	{Key: category.Gasoil, Header: "Gasoil", TTCCol: "B", TVACol: "C"},
	{Key: category.RestaurantsAutoroute, Header: "Restaurants / Autoroute", TTCCol: "D", TVACol: "E"},
	{Key: category.MissionReceptions, Header: "Mission / Réceptions", TTCCol: "F", TVACol: "G", NoteCol: "H"},
	{Key: category.HotelsTransport, Header: "Hôtels / Transport", TTCCol: "J"},
	{Key: category.EntretienVehicules, Header: "Entretien Véhicules", TTCCol: "K"},
	{Key: category.FournituresBureaux, Header: "Fournitures Bureaux", TTCCol: "L", TVACol: "M"},
	{Key: category.Divers, Header: "Divers", TTCCol: "N", TVACol: "O", NoteCol: "P"},
	{Key: category.Salons, Header: "Salons", TTCCol: "Q", TVACol: "R"},
}

// numericColumns in sheet order, used for the totals-row formulas.
var numericColumns = []string{"B", "C", "D", "E", "F", "G", "J", "K", "L", "M", "N", "O", "Q", "R"}

// ttcColumns feed the grand total formula.
var ttcColumns = []string{"B", "D", "F", "J", "K", "L", "N", "Q"}

var fillInColWidths = map[string]float64{
	"A": 6,
	"B": 12, "C": 10,
	"D": 12, "E": 10,
	"F": 12, "G": 10, "H": 18,
	"I": 3,
	"J": 12, "K": 12,
	"L": 12, "M": 10,
	"N": 12, "O": 10, "P": 18,
	"Q": 12, "R": 10,
}

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// MonthLabel renders a month the way the paper form titles it, e.g.
// "mars 2024".
func MonthLabel(month time.Time) string {
	return fmt.Sprintf("%s %d", frenchMonths[month.Month()-1], month.Year())
}

// SpreadsheetFilename is the fixed xlsx name for a month.
func SpreadsheetFilename(month time.Time) string {
	return fmt.Sprintf("notes-de-frais-%s.xlsx", month.Format("2006-01"))
}

// ArchiveFilename is the fixed zip name for a month.
func ArchiveFilename(month time.Time) string {
	return fmt.Sprintf("notes-de-frais-%s.zip", month.Format("2006-01"))
}

// First data row of the fill-in sheet (1-indexed): header block takes rows
// 1-7, day 1 lands on row 8.
const fillInDataStartRow = 8

// BuildWorkbook renders the two fixed-layout sheets for one export.
func BuildWorkbook(data MonthlyExportData) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetFillIn); err != nil {
		return nil, fmt.Errorf("renaming fill-in sheet: %w", err)
	}
	if err := buildFillInSheet(f, data); err != nil {
		return nil, fmt.Errorf("building fill-in sheet: %w", err)
	}

	if _, err := f.NewSheet(SheetCompta); err != nil {
		return nil, fmt.Errorf("creating accounting sheet: %w", err)
	}
	if err := buildComptaSheet(f, data); err != nil {
		return nil, fmt.Errorf("building accounting sheet: %w", err)
	}

	return f, nil
}

func buildFillInSheet(f *excelize.File, data MonthlyExportData) error {
	sheet := SheetFillIn

	// header block
	f.SetCellValue(sheet, "A1", "NOM COMMERCIAL :")
	f.SetCellValue(sheet, "B1", data.UserName)
	f.SetCellValue(sheet, "K1", "MOIS :")
	f.SetCellValue(sheet, "L1", MonthLabel(data.Month))
	f.SetCellValue(sheet, "A2", "SECTION :")
	f.SetCellValue(sheet, "A4", "Payé par Carte Bleue")

	// two-row category header
	f.SetCellValue(sheet, "A6", "Jour")
	for _, g := range columnGroups {
		f.SetCellValue(sheet, g.TTCCol+"6", g.Header)
		f.SetCellValue(sheet, g.TTCCol+"7", "Montant TTC")
		if g.TVACol != "" {
			f.SetCellValue(sheet, g.TVACol+"7", "dont TVA")
		}
	}
	f.SetCellValue(sheet, "H7", "Nom Entreprises")
	f.SetCellValue(sheet, "P7", "Désignation du divers")

	// one row per calendar day
	grid := AggregateByDay(data.Receipts, data.Month)
	for day := 1; day <= grid.DaysInMonth; day++ {
		rowNum := fillInDataStartRow + day - 1
		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowNum), day)

		dayRow := grid.Days[day]
		for _, g := range columnGroups {
			cell := dayRow.Cell(g.Key)
			if cell == nil {
				continue
			}
			// zero cells stay blank to match the sparse paper form
			if cell.TTCCents != 0 {
				f.SetCellValue(sheet, fmt.Sprintf("%s%d", g.TTCCol, rowNum), money.CentsToEuros(cell.TTCCents))
			}
			if g.TVACol != "" && cell.TVACents != 0 {
				f.SetCellValue(sheet, fmt.Sprintf("%s%d", g.TVACol, rowNum), money.CentsToEuros(cell.TVACents))
			}
			if g.NoteCol != "" && cell.Note != "" {
				f.SetCellValue(sheet, fmt.Sprintf("%s%d", g.NoteCol, rowNum), cell.Note)
			}
		}
	}

	// totals row: native SUM formulas so the accountant's manual corrections
	// recalculate into the totals
	lastDayRow := fillInDataStartRow + grid.DaysInMonth - 1
	sumRow := lastDayRow + 1
	f.SetCellValue(sheet, fmt.Sprintf("A%d", sumRow), "TOTAL")
	for _, col := range numericColumns {
		formula := fmt.Sprintf("SUM(%s%d:%s%d)", col, fillInDataStartRow, col, lastDayRow)
		if err := f.SetCellFormula(sheet, fmt.Sprintf("%s%d", col, sumRow), formula); err != nil {
			return err
		}
	}

	// grand total two rows below, summing the eight category TTC totals
	grandRow := sumRow + 2
	f.SetCellValue(sheet, fmt.Sprintf("A%d", grandRow), "TOTAL GENERAL")
	refs := ""
	for i, col := range ttcColumns {
		if i > 0 {
			refs += "+"
		}
		refs += fmt.Sprintf("%s%d", col, sumRow)
	}
	if err := f.SetCellFormula(sheet, fmt.Sprintf("B%d", grandRow), refs); err != nil {
		return err
	}

	for col, width := range fillInColWidths {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	return nil
}

var comptaColWidths = map[string]float64{
	"A": 12, "B": 24, "C": 10, "D": 14, "E": 12, "F": 12, "G": 14,
}

func buildComptaSheet(f *excelize.File, data MonthlyExportData) error {
	sheet := SheetCompta

	f.SetCellValue(sheet, "A1", "TABLEAU COMPTA")
	headers := []string{"Code", "Libellé", "Section", "TTC", "TVA", "TVA 80%", "HT"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		if err != nil {
			return err
		}
		f.SetCellValue(sheet, cell, h)
	}

	rows := BuildAccountSummary(data.Receipts, data.Month)

	rowNum := 4
	for _, row := range rows {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowNum), row.Code)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", rowNum), row.Label)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", rowNum), row.Section)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", rowNum), money.CentsToEuros(row.TTCCents))
		f.SetCellValue(sheet, fmt.Sprintf("E%d", rowNum), money.CentsToEuros(row.TVACents))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", rowNum), money.CentsToEuros(row.TVA80Cents))
		f.SetCellValue(sheet, fmt.Sprintf("G%d", rowNum), money.CentsToEuros(row.HTCents))
		rowNum++
	}

	// one blank separator row, then plain-value totals: unlike sheet 1 these
	// are deliberately not formulas
	rowNum++
	total := SummaryTotals(rows)
	f.SetCellValue(sheet, fmt.Sprintf("B%d", rowNum), "TOTAL")
	f.SetCellValue(sheet, fmt.Sprintf("D%d", rowNum), money.CentsToEuros(total.TTCCents))
	f.SetCellValue(sheet, fmt.Sprintf("E%d", rowNum), money.CentsToEuros(total.TVACents))
	f.SetCellValue(sheet, fmt.Sprintf("F%d", rowNum), money.CentsToEuros(total.TVA80Cents))
	f.SetCellValue(sheet, fmt.Sprintf("G%d", rowNum), money.CentsToEuros(total.HTCents))

	for col, width := range comptaColWidths {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	return nil
}
