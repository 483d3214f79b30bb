package ports

import "kinact/domain/enrichment"

// BatchSource reads experiment rows (sequence, log2 fold change) from an
// external table.
type BatchSource interface {
	ReadBatch(path string) ([]enrichment.InputRow, error)
}
