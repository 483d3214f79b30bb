package ports

import (
	"context"

	"kinact/domain/core"
	"kinact/domain/enrichment"
)

// RunRepository persists completed enrichment runs. Optional collaborator;
// the services work without one.
type RunRepository interface {
	SaveRun(ctx context.Context, run *enrichment.Run) error
	GetRun(ctx context.Context, id core.RunID) (*enrichment.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*enrichment.Run, error)
	DeleteRun(ctx context.Context, id core.RunID) error
}
