package enrichment

import (
	"fmt"
	"math"

	"kinact/domain/core"
)

// Regulation is the direction a phosphosite moved in the experiment.
type Regulation string

const (
	RegulationUp          Regulation = "up"
	RegulationDown        Regulation = "down"
	RegulationUnregulated Regulation = "unregulated"
)

func (r Regulation) String() string { return string(r) }

// ValidateFCThreshold rejects thresholds that cannot split fold changes
// into three classes.
func ValidateFCThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold <= 0 {
		return core.NewConfigurationError("fc_threshold", fmt.Sprintf("must be > 0, got %v", threshold))
	}
	return nil
}

// Classify maps a log2 fold change to a regulation direction. Both
// boundaries are inclusive: fc >= threshold is up, fc <= -threshold is
// down, everything between is unregulated.
func Classify(fc, threshold float64) (Regulation, error) {
	if err := ValidateFCThreshold(threshold); err != nil {
		return "", err
	}
	if math.IsNaN(fc) {
		return "", core.NewConfigurationError("log2fc", "must not be NaN")
	}
	switch {
	case fc >= threshold:
		return RegulationUp, nil
	case fc <= -threshold:
		return RegulationDown, nil
	default:
		return RegulationUnregulated, nil
	}
}
