package ports

import (
	"kinact/domain/matrix"
	"kinact/domain/site"
)

// MatrixSource loads the reference scoring artifacts for one variant.
type MatrixSource interface {
	LoadMatrix(variant site.Variant) (*matrix.ScoringMatrix, error)
	LoadBackground(variant site.Variant) (*matrix.Background, error)
}
