package server

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"

	"optoutserver/filing"
)

// ReceiptBundler собирает квитанции об успешных отправках в один zip-архив
type ReceiptBundler struct {
	client *FilingClient
}

// NewReceiptBundler создает сборщик квитанций
func NewReceiptBundler(client *FilingClient) *ReceiptBundler {
	return &ReceiptBundler{client: client}
}

// BundleReceipts скачивает квитанцию для каждого успешного результата
// и пишет zip-архив в w. Результаты без requestId и квитанции, которые
// внешний API еще не подготовил, пропускаются; любая другая ошибка
// скачивания останавливает сборку. Возвращает число добавленных файлов.
func (b *ReceiptBundler) BundleReceipts(ctx context.Context, w io.Writer, initials string, results []filing.SubmissionResult) (int, error) {
	archive := zip.NewWriter(w)

	added := 0
	for _, result := range results {
		if !result.OK || result.RequestID == "" {
			continue
		}

		data, err := b.client.FetchReceipt(ctx, initials, result.RequestID, result.PatentNumber)
		if err != nil {
			if errors.Is(err, ErrReceiptNotFound) {
				Logger.Warn("Receipt not ready, skipping",
					"ep", result.PatentNumber,
					"request_id", result.RequestID,
				)
				continue
			}
			archive.Close()
			return added, fmt.Errorf("failed to fetch receipt for %s: %w", result.PatentNumber, err)
		}

		entry, err := archive.Create(receiptFilename(result.PatentNumber))
		if err != nil {
			archive.Close()
			return added, fmt.Errorf("failed to create archive entry for %s: %w", result.PatentNumber, err)
		}
		if _, err := entry.Write(data); err != nil {
			archive.Close()
			return added, fmt.Errorf("failed to write archive entry for %s: %w", result.PatentNumber, err)
		}
		added++
	}

	if err := archive.Close(); err != nil {
		return added, fmt.Errorf("failed to finalize receipts archive: %w", err)
	}
	return added, nil
}

// receiptFilename имя файла квитанции внутри архива
func receiptFilename(ep string) string {
	return fmt.Sprintf("Receipt_%s.pdf", ep)
}
