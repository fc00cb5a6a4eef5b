package export_test

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nfrais/notes-de-frais/internal/category"
	"github.com/nfrais/notes-de-frais/internal/export"
	"github.com/nfrais/notes-de-frais/internal/receipt"
)

type mapStorage struct {
	files map[string][]byte
}

func (m *mapStorage) Save(path string, data []byte) (string, error) {
	m.files[path] = data
	return path, nil
}

func (m *mapStorage) Get(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("no file at %s", path)
	}
	return data, nil
}

func (m *mapStorage) Delete(path string) error {
	delete(m.files, path)
	return nil
}

var _ = Describe("BuildArchive", func() {
	month := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(GinkgoWriter, nil))

	var store *mapStorage

	BeforeEach(func() {
		store = &mapStorage{files: map[string][]byte{
			"receipts/a.jpg": []byte("image-a"),
			"receipts/c.png": []byte("image-c"),
		}}
	})

	withImage := func(d int, cat category.Key, path string) *receipt.Receipt {
		r := rec(month, d, cat, 1000, nil)
		r.ImagePath = &path
		return r
	}

	data := func() export.MonthlyExportData {
		return export.MonthlyExportData{
			Month:    month,
			UserName: "Jean Dupont",
			Receipts: []*receipt.Receipt{
				withImage(2, category.Gasoil, "receipts/a.jpg"),
				withImage(5, category.HotelsTransport, "receipts/b.jpg"),
				withImage(9, category.Divers, "receipts/c.png"),
				rec(month, 12, category.Salons, 500, nil),
			},
		}
	}

	entryNames := func(archive *export.Archive) []string {
		zr, err := zip.NewReader(bytes.NewReader(archive.Data), int64(len(archive.Data)))
		Expect(err).NotTo(HaveOccurred())
		names := make([]string, 0, len(zr.File))
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		return names
	}

	It("bundles the spreadsheet with dated, numbered image entries", func() {
		archive, err := export.BuildArchive(context.Background(), data(), store, nil, logger)
		Expect(err).NotTo(HaveOccurred())

		Expect(archive.Filename).To(Equal("notes-de-frais-2026-03.zip"))
		Expect(entryNames(archive)).To(ContainElements(
			"notes-de-frais-2026-03.xlsx",
			"justificatifs/2026-03-02_gasoil_1.jpg",
			"justificatifs/2026-03-09_divers_3.png",
		))
	})

	It("skips an unavailable image but keeps its sequence number", func() {
		archive, err := export.BuildArchive(context.Background(), data(), store, nil, logger)
		Expect(err).NotTo(HaveOccurred())

		Expect(archive.ImagesTotal).To(Equal(3))
		Expect(archive.ImagesAdded).To(Equal(2))

		names := entryNames(archive)
		Expect(names).NotTo(ContainElement(ContainSubstring("hotels_transport")))
		// receipt b held slot 2, so c stays numbered 3
		Expect(names).To(ContainElement("justificatifs/2026-03-09_divers_3.png"))
	})

	It("reports progress per image up to 100", func() {
		var seen []int
		onProgress := func(p int) { seen = append(seen, p) }

		_, err := export.BuildArchive(context.Background(), data(), store, onProgress, logger)
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(Equal([]int{33, 66, 100}))
	})

	It("discards the partial archive on cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		archive, err := export.BuildArchive(ctx, data(), store, nil, logger)
		Expect(err).To(MatchError(context.Canceled))
		Expect(archive).To(BeNil())
	})

	It("still produces an archive for a month without images", func() {
		archive, err := export.BuildArchive(context.Background(), export.MonthlyExportData{
			Month:    month,
			UserName: "Jean Dupont",
		}, store, nil, logger)
		Expect(err).NotTo(HaveOccurred())

		Expect(archive.ImagesTotal).To(BeZero())
		Expect(entryNames(archive)).To(ConsistOf("notes-de-frais-2026-03.xlsx"))
	})
})
