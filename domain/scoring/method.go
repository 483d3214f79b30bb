package scoring

import "kinact/domain/core"

// Method selects how scores from multiple phospho-acceptor windows of the
// same peptide collapse into one value per kinase.
type Method string

const (
	// MethodMin keeps the lowest raw score across windows.
	MethodMin Method = "min"
	// MethodMax keeps the highest raw score across windows.
	MethodMax Method = "max"
	// MethodAvg averages raw scores across windows.
	MethodAvg Method = "avg"
	// MethodAll scores every window independently. Only valid in batch
	// aggregation, where a kinase joins the site's set when it clears the
	// cutoff in every window; the site still counts once.
	MethodAll Method = "all"
)

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodMin, MethodMax, MethodAvg, MethodAll:
		return Method(s), nil
	default:
		return "", core.NewConfigurationError("method", "must be one of min, max, avg, all")
	}
}

func (m Method) String() string { return string(m) }
