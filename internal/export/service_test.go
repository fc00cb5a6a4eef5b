package export_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nfrais/notes-de-frais/internal/category"
	"github.com/nfrais/notes-de-frais/internal/export"
	"github.com/nfrais/notes-de-frais/internal/receipt"
)

type mockReceiptSource struct {
	receipts []*receipt.Receipt
	err      error
}

func (m *mockReceiptSource) ListForMonth(userID string, month time.Time, cat *category.Key) ([]*receipt.Receipt, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.receipts, nil
}

type mockProfileSource struct {
	name string
	err  error
}

func (m *mockProfileSource) GetDisplayName(userID string) (string, error) {
	return m.name, m.err
}

type mockExportRepository struct {
	records   []*export.ExportRecord
	createErr error
}

func (m *mockExportRepository) CreateRecord(rec *export.ExportRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *mockExportRepository) ListRecords(userID string) ([]*export.ExportRecord, error) {
	return m.records, nil
}

var _ = Describe("Service", func() {
	month := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(GinkgoWriter, nil))

	var (
		source   *mockReceiptSource
		profiles *mockProfileSource
		records  *mockExportRepository
		store    *mapStorage
		service  *export.Service
	)

	BeforeEach(func() {
		source = &mockReceiptSource{receipts: []*receipt.Receipt{
			rec(month, 5, category.Gasoil, 8000, cents(1600)),
		}}
		profiles = &mockProfileSource{name: "Jean Dupont"}
		records = &mockExportRepository{}
		store = &mapStorage{files: map[string][]byte{}}
		service = export.NewService(source, profiles, records, store, logger)
	})

	It("produces the archive and records the export", func() {
		archive, err := service.ExportMonth(context.Background(), "user-1", month, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(archive.Filename).To(Equal("notes-de-frais-2026-03.zip"))
		zr, err := zip.NewReader(bytes.NewReader(archive.Data), int64(len(archive.Data)))
		Expect(err).NotTo(HaveOccurred())
		Expect(zr.File).NotTo(BeEmpty())

		Expect(records.records).To(HaveLen(1))
		record := records.records[0]
		Expect(record.UserID).To(Equal("user-1"))
		Expect(record.Month).To(Equal("2026-03"))
		Expect(record.FileName).To(Equal("notes-de-frais-2026-03.xlsx"))
	})

	It("aborts when the receipts cannot be loaded", func() {
		source.err = errors.New("connection refused")

		_, err := service.ExportMonth(context.Background(), "user-1", month, nil)
		Expect(err).To(MatchError(export.ErrReceiptsUnavailable))
		Expect(records.records).To(BeEmpty())
	})

	It("falls back to a blank header name when the profile lookup fails", func() {
		profiles.err = errors.New("profile store down")

		archive, err := service.ExportMonth(context.Background(), "user-1", month, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(archive).NotTo(BeNil())
	})

	It("still returns the archive when recording the history fails", func() {
		records.createErr = errors.New("insert failed")

		archive, err := service.ExportMonth(context.Background(), "user-1", month, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(archive).NotTo(BeNil())
	})
})
