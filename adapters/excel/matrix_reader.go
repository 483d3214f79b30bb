package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"kinact/domain/core"
	"kinact/domain/matrix"
	"kinact/domain/site"
	apperrors "kinact/internal/errors"
)

// MatrixFiles names the two reference tables of one variant panel.
type MatrixFiles struct {
	Matrix     string
	Background string
}

// MatrixReader loads scoring matrices and background distributions from
// CSV tables. Matrix layout: one row per kinase, columns labeled with
// position-residue codes ("-5P", "3R", "0S"). Background layout: one row
// per kinase followed by its sampled scores.
type MatrixReader struct {
	files map[site.Variant]MatrixFiles
}

// NewMatrixReader wires the file locations for both variants. Either entry
// may be left empty when only one panel is needed.
func NewMatrixReader(serThr, tyr MatrixFiles) *MatrixReader {
	files := make(map[site.Variant]MatrixFiles)
	if serThr.Matrix != "" {
		files[site.VariantSerThr] = serThr
	}
	if tyr.Matrix != "" {
		files[site.VariantTyr] = tyr
	}
	return &MatrixReader{files: files}
}

// LoadMatrix reads and validates the scoring matrix for a variant.
func (r *MatrixReader) LoadMatrix(variant site.Variant) (*matrix.ScoringMatrix, error) {
	files, ok := r.files[variant]
	if !ok {
		return nil, apperrors.SchemaMismatch(fmt.Sprintf("no matrix configured for variant %s", variant))
	}
	rows, err := readCSVFile(files.Matrix)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, apperrors.SchemaMismatch("matrix table must have a header row and at least one kinase row")
	}

	header := rows[0]
	if len(header) < 2 {
		return nil, apperrors.SchemaMismatch("matrix table needs a kinase column and weight columns")
	}
	labels := make([]matrix.PositionResidue, len(header)-1)
	for i, cell := range header[1:] {
		pr, err := parsePositionResidue(cell)
		if err != nil {
			return nil, err
		}
		labels[i] = pr
	}

	panel := make([]core.KinaseName, 0, len(rows)-1)
	weights := make(map[matrix.PositionResidue][]float64, len(labels))
	for _, pr := range labels {
		weights[pr] = make([]float64, 0, len(rows)-1)
	}
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, apperrors.SchemaMismatch(fmt.Sprintf("matrix row %d has %d cells, header has %d", i+1, len(row), len(header)))
		}
		kinase, err := core.ParseKinaseName(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, apperrors.SchemaMismatch(fmt.Sprintf("matrix row %d: %v", i+1, err))
		}
		panel = append(panel, kinase)
		for j, cell := range row[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, apperrors.SchemaMismatch(fmt.Sprintf("matrix cell %s/%s is not numeric: %q", kinase, labels[j], cell))
			}
			weights[labels[j]] = append(weights[labels[j]], v)
		}
	}

	m, err := matrix.NewScoringMatrix(variant, panel, weights)
	if err != nil {
		return nil, err
	}
	log.Printf("[MatrixReader] Loaded %s matrix: %d kinases, %d weight rows", variant, m.PanelSize(), len(labels))
	return m, nil
}

// LoadBackground reads the background score distributions for a variant.
func (r *MatrixReader) LoadBackground(variant site.Variant) (*matrix.Background, error) {
	files, ok := r.files[variant]
	if !ok || files.Background == "" {
		return nil, apperrors.SchemaMismatch(fmt.Sprintf("no background configured for variant %s", variant))
	}
	rows, err := readCSVFile(files.Background)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.SchemaMismatch("background table is empty")
	}

	samples := make(map[core.KinaseName][]float64, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			return nil, apperrors.SchemaMismatch(fmt.Sprintf("background row %d needs a kinase and at least two samples", i))
		}
		kinase, err := core.ParseKinaseName(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, apperrors.SchemaMismatch(fmt.Sprintf("background row %d: %v", i, err))
		}
		values := make([]float64, 0, len(row)-1)
		for _, cell := range row[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, apperrors.SchemaMismatch(fmt.Sprintf("background cell for %s is not numeric: %q", kinase, cell))
			}
			values = append(values, v)
		}
		samples[kinase] = values
	}

	b, err := matrix.NewBackground(variant, samples)
	if err != nil {
		return nil, err
	}
	log.Printf("[MatrixReader] Loaded %s background: %d kinases", variant, b.Size())
	return b, nil
}

func readCSVFile(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to open table %s", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if delim, err := sniffDelimiter(path); err == nil {
		reader.Comma = delim
	}
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to read table %s", path)
	}
	return rows, nil
}

// parsePositionResidue parses a column label like "-5P" or "0S".
func parsePositionResidue(label string) (matrix.PositionResidue, error) {
	label = strings.TrimSpace(label)
	if len(label) < 2 {
		return matrix.PositionResidue{}, apperrors.SchemaMismatch(fmt.Sprintf("bad weight column label %q", label))
	}
	pos, err := strconv.Atoi(label[:len(label)-1])
	if err != nil {
		return matrix.PositionResidue{}, apperrors.SchemaMismatch(fmt.Sprintf("bad position in weight column label %q", label))
	}
	return matrix.PositionResidue{Pos: pos, Residue: label[len(label)-1]}, nil
}
