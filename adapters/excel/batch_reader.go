package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"kinact/domain/enrichment"
	apperrors "kinact/internal/errors"
)

// BatchReader reads experiment tables (phosphosite sequence plus log2 fold
// change) from Excel or CSV/TSV files.
type BatchReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewBatchReader creates a reader that handles both Excel and CSV files.
func NewBatchReader(filePath string) *BatchReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" || ext == ".tsv" || ext == ".txt" {
		fileType = "csv"
	}
	return &BatchReader{filePath: filePath, fileType: fileType}
}

// sequenceColumns are the header names accepted for the sequence column,
// checked case-insensitively in order.
var sequenceColumns = []string{
	"sequence",
	"site",
	"phosphosite",
	"peptide",
}

// foldChangeColumns are the header names accepted for the log2 fold-change
// column.
var foldChangeColumns = []string{
	"log2_fold_change",
	"log2fc",
	"log2_fc",
	"fold_change",
	"logfc",
	"fc",
}

// ReadBatch reads all rows into input order. Row indices are zero-based
// over the data rows, header excluded, so failures can be reported against
// the source table.
func (r *BatchReader) ReadBatch(path string) ([]enrichment.InputRow, error) {
	if path != "" {
		r.filePath = path
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".csv" || ext == ".tsv" || ext == ".txt" {
			r.fileType = "csv"
		} else {
			r.fileType = "xlsx"
		}
	}
	log.Printf("[BatchReader] Reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("batch file not found: %s", r.filePath))
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, apperrors.InvalidInput("batch file must have a header row and at least one data row")
	}
	return r.processRows(rows)
}

func (r *BatchReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to read sheet %s", sheet)
	}
	log.Printf("[BatchReader] Sheet %s read (%d rows)", sheet, len(rows))
	return rows, nil
}

func (r *BatchReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if delim, err := sniffDelimiter(r.filePath); err == nil {
		reader.Comma = delim
	}
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read CSV file")
	}
	log.Printf("[BatchReader] CSV file read (%d rows)", len(rows))
	return rows, nil
}

// sniffDelimiter checks the first line for a tab; comma otherwise.
func sniffDelimiter(path string) (rune, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ',', err
	}
	line := string(data)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.ContainsRune(line, '\t') {
		return '\t', nil
	}
	return ',', nil
}

// processRows locates the schema columns and converts the data rows.
func (r *BatchReader) processRows(rows [][]string) ([]enrichment.InputRow, error) {
	header := rows[0]
	seqCol := findColumn(header, sequenceColumns)
	fcCol := findColumn(header, foldChangeColumns)
	if seqCol < 0 || fcCol < 0 {
		return nil, apperrors.SchemaMismatch(fmt.Sprintf(
			"batch table needs a sequence column (%s) and a fold-change column (%s), got headers %v",
			strings.Join(sequenceColumns, "|"), strings.Join(foldChangeColumns, "|"), header))
	}

	out := make([]enrichment.InputRow, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if seqCol >= len(row) || fcCol >= len(row) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("row %d has %d cells, need %d", i, len(row), max(seqCol, fcCol)+1))
		}
		seq := strings.TrimSpace(row[seqCol])
		fcText := strings.TrimSpace(row[fcCol])
		fc, err := strconv.ParseFloat(fcText, 64)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("row %d: fold change %q is not numeric", i, fcText))
		}
		out = append(out, enrichment.InputRow{Index: i - 1, Sequence: seq, Log2FC: fc})
	}
	log.Printf("[BatchReader] Batch processed (%d rows)", len(out))
	return out, nil
}

func findColumn(header []string, names []string) int {
	for _, name := range names {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
	}
	return -1
}
