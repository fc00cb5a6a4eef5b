package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nfrais/notes-de-frais/internal/storage"
)

// ProgressFunc receives the percentage of images processed so far. The final
// archive serialization reports no incremental progress.
type ProgressFunc func(percent int)

// Archive is a completed export bundle, built fully in memory and handed out
// only once complete.
type Archive struct {
	Data        []byte
	Filename    string
	ImagesTotal int
	ImagesAdded int
}

// imagesDir is the folder receipts images live under inside the archive.
const imagesDir = "justificatifs"

// BuildArchive bundles the month's spreadsheet with the source receipt
// images. A receipt whose image cannot be fetched is logged and skipped; the
// export never fails solely because one image is unavailable. Cancellation is
// honored between image fetches and discards the partial archive.
func BuildArchive(ctx context.Context, data MonthlyExportData, store storage.Storage, onProgress ProgressFunc, logger *slog.Logger) (*Archive, error) {
	wb, err := BuildWorkbook(data)
	if err != nil {
		return nil, fmt.Errorf("generating spreadsheet: %w", err)
	}
	wbBuf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serializing spreadsheet: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	xlsxEntry, err := zw.Create(SpreadsheetFilename(data.Month))
	if err != nil {
		return nil, fmt.Errorf("creating spreadsheet entry: %w", err)
	}
	if _, err := xlsxEntry.Write(wbBuf.Bytes()); err != nil {
		return nil, fmt.Errorf("writing spreadsheet entry: %w", err)
	}

	var withImages []int
	for i, rec := range data.Receipts {
		if rec.HasImage() {
			withImages = append(withImages, i)
		}
	}

	added := 0
	for seq, idx := range withImages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec := data.Receipts[idx]
		imgData, err := store.Get(*rec.ImagePath)
		if err != nil {
			logger.Warn("skipping unavailable receipt image",
				"receipt_id", rec.ID,
				"image_path", *rec.ImagePath,
				"error", err)
		} else {
			name := fmt.Sprintf("%s/%s_%s_%d.%s",
				imagesDir,
				rec.ReceiptDate.Format("2006-01-02"),
				rec.Category,
				seq+1,
				imageExtension(*rec.ImagePath))
			entry, err := zw.Create(name)
			if err != nil {
				return nil, fmt.Errorf("creating image entry: %w", err)
			}
			if _, err := entry.Write(imgData); err != nil {
				return nil, fmt.Errorf("writing image entry: %w", err)
			}
			added++
		}

		if onProgress != nil {
			onProgress((seq + 1) * 100 / len(withImages))
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}

	return &Archive{
		Data:        buf.Bytes(),
		Filename:    ArchiveFilename(data.Month),
		ImagesTotal: len(withImages),
		ImagesAdded: added,
	}, nil
}

// imageExtension pulls the original extension off a stored path, defaulting
// to jpg.
func imageExtension(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 || idx == len(path)-1 {
		return "jpg"
	}
	return path[idx+1:]
}
