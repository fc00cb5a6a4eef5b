package export_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nfrais/notes-de-frais/internal/category"
	"github.com/nfrais/notes-de-frais/internal/export"
	"github.com/nfrais/notes-de-frais/internal/receipt"
	"github.com/xuri/excelize/v2"
)

var _ = Describe("BuildWorkbook", func() {
	month := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	build := func(receipts []*receipt.Receipt) *excelize.File {
		f, err := export.BuildWorkbook(export.MonthlyExportData{
			Month:    month,
			UserName: "Jean Dupont",
			Receipts: receipts,
		})
		Expect(err).NotTo(HaveOccurred())
		return f
	}

	cell := func(f *excelize.File, sheet, ref string) string {
		v, err := f.GetCellValue(sheet, ref)
		Expect(err).NotTo(HaveOccurred())
		return v
	}

	It("names the two sheets after the paper form", func() {
		f := build(nil)
		Expect(f.GetSheetList()).To(ConsistOf(export.SheetFillIn, export.SheetCompta))
	})

	It("writes the header block with name and French month label", func() {
		f := build(nil)
		Expect(cell(f, export.SheetFillIn, "A1")).To(Equal("NOM COMMERCIAL :"))
		Expect(cell(f, export.SheetFillIn, "B1")).To(Equal("Jean Dupont"))
		Expect(cell(f, export.SheetFillIn, "K1")).To(Equal("MOIS :"))
		Expect(cell(f, export.SheetFillIn, "L1")).To(Equal("mars 2026"))
		Expect(cell(f, export.SheetFillIn, "A2")).To(Equal("SECTION :"))
		Expect(cell(f, export.SheetFillIn, "A4")).To(Equal("Payé par Carte Bleue"))
	})

	It("writes the two-row category header on its fixed columns", func() {
		f := build(nil)
		Expect(cell(f, export.SheetFillIn, "A6")).To(Equal("Jour"))
		Expect(cell(f, export.SheetFillIn, "B6")).To(Equal("Gasoil"))
		Expect(cell(f, export.SheetFillIn, "B7")).To(Equal("Montant TTC"))
		Expect(cell(f, export.SheetFillIn, "C7")).To(Equal("dont TVA"))
		Expect(cell(f, export.SheetFillIn, "H7")).To(Equal("Nom Entreprises"))
		Expect(cell(f, export.SheetFillIn, "J6")).To(Equal("Hôtels / Transport"))
		Expect(cell(f, export.SheetFillIn, "P7")).To(Equal("Désignation du divers"))
		Expect(cell(f, export.SheetFillIn, "Q6")).To(Equal("Salons"))
	})

	It("places day amounts in euros on the day's row", func() {
		f := build([]*receipt.Receipt{
			rec(month, 5, category.Gasoil, 8000, cents(1600)),
		})
		// day 5 lands on row 12
		Expect(cell(f, export.SheetFillIn, "A12")).To(Equal("5"))
		Expect(cell(f, export.SheetFillIn, "B12")).To(Equal("80"))
		Expect(cell(f, export.SheetFillIn, "C12")).To(Equal("16"))
	})

	It("leaves zero cells blank", func() {
		f := build([]*receipt.Receipt{
			rec(month, 10, category.HotelsTransport, 9900, nil),
		})
		Expect(cell(f, export.SheetFillIn, "J17")).To(Equal("99"))
		Expect(cell(f, export.SheetFillIn, "B17")).To(Equal(""))
		Expect(cell(f, export.SheetFillIn, "C17")).To(Equal(""))
	})

	It("writes the free-text columns next to their category", func() {
		a := rec(month, 8, category.MissionReceptions, 12500, cents(1136))
		a.CompanyName = str("Acme SARL")
		d := rec(month, 20, category.Divers, 4200, cents(700))
		d.Designation = str("Outillage atelier")

		f := build([]*receipt.Receipt{a, d})
		Expect(cell(f, export.SheetFillIn, "H15")).To(Equal("Acme SARL"))
		Expect(cell(f, export.SheetFillIn, "P27")).To(Equal("Outillage atelier"))
	})

	It("puts SUM formulas on the totals row covering all day rows", func() {
		f := build(nil)
		// March has 31 days: rows 8-38, totals on 39
		Expect(cell(f, export.SheetFillIn, "A39")).To(Equal("TOTAL"))
		formula, err := f.GetCellFormula(export.SheetFillIn, "B39")
		Expect(err).NotTo(HaveOccurred())
		Expect(formula).To(Equal("SUM(B8:B38)"))
	})

	It("writes the grand total as a reference sum of the TTC totals", func() {
		f := build(nil)
		Expect(cell(f, export.SheetFillIn, "A41")).To(Equal("TOTAL GENERAL"))
		formula, err := f.GetCellFormula(export.SheetFillIn, "B41")
		Expect(err).NotTo(HaveOccurred())
		Expect(formula).To(Equal("B39+D39+F39+J39+K39+L39+N39+Q39"))
	})

	It("renders the accounting sheet with plain-value totals", func() {
		f := build([]*receipt.Receipt{
			rec(month, 5, category.Gasoil, 8000, cents(1600)),
			rec(month, 6, category.RestaurantsAutoroute, 1850, cents(168)),
		})

		Expect(cell(f, export.SheetCompta, "A1")).To(Equal("TABLEAU COMPTA"))
		Expect(cell(f, export.SheetCompta, "A3")).To(Equal("Code"))
		Expect(cell(f, export.SheetCompta, "G3")).To(Equal("HT"))

		Expect(cell(f, export.SheetCompta, "A4")).To(Equal("6061400"))
		Expect(cell(f, export.SheetCompta, "D4")).To(Equal("80"))
		Expect(cell(f, export.SheetCompta, "F4")).To(Equal("12.8"))
		Expect(cell(f, export.SheetCompta, "G4")).To(Equal("67.2"))

		Expect(cell(f, export.SheetCompta, "A5")).To(Equal("6251000"))
		Expect(cell(f, export.SheetCompta, "G5")).To(Equal("16.82"))

		// blank separator row, then value totals
		Expect(cell(f, export.SheetCompta, "B6")).To(Equal(""))
		Expect(cell(f, export.SheetCompta, "B7")).To(Equal("TOTAL"))
		Expect(cell(f, export.SheetCompta, "D7")).To(Equal("98.5"))
		formula, err := f.GetCellFormula(export.SheetCompta, "D7")
		Expect(err).NotTo(HaveOccurred())
		Expect(formula).To(Equal(""))
	})

	It("derives the fixed filenames from the month", func() {
		Expect(export.SpreadsheetFilename(month)).To(Equal("notes-de-frais-2026-03.xlsx"))
		Expect(export.ArchiveFilename(month)).To(Equal("notes-de-frais-2026-03.zip"))
	})
})
