package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"kinact/domain/core"
	"kinact/domain/enrichment"
	"kinact/domain/site"
	apperrors "kinact/internal/errors"
	"kinact/ports"
)

// RunRepositoryImpl persists enrichment runs in PostgreSQL: one row per
// run plus one row per kinase per variant table.
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository.
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// Schema returns the DDL for the two run tables.
func Schema() string {
	return `
CREATE TABLE IF NOT EXISTS enrichment_runs (
	id            TEXT PRIMARY KEY,
	created_at    TIMESTAMPTZ NOT NULL,
	options       JSONB NOT NULL,
	fingerprint   TEXT NOT NULL,
	failed_sites  JSONB,
	annotations   JSONB
);

CREATE TABLE IF NOT EXISTS enrichment_kinases (
	run_id          TEXT NOT NULL REFERENCES enrichment_runs(id) ON DELETE CASCADE,
	variant         TEXT NOT NULL,
	kinase          TEXT NOT NULL,
	row_data        JSONB NOT NULL,
	total_sites     INT NOT NULL,
	total_up        INT NOT NULL,
	total_down      INT NOT NULL,
	total_unreg     INT NOT NULL,
	PRIMARY KEY (run_id, variant, kinase)
);
`
}

// SaveRun stores the run header and every kinase row in one transaction.
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, run *enrichment.Run) error {
	if run == nil || run.ID.IsEmpty() {
		return apperrors.InvalidInput("run must have an ID")
	}
	optionsJSON, err := json.Marshal(run.Options)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode run options")
	}
	failedJSON, err := json.Marshal(run.FailedSites)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode failed sites")
	}
	annotationsJSON, err := json.Marshal(run.Annotations)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode annotations")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.DatabaseError(err.Error())
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO enrichment_runs (id, created_at, options, fingerprint, failed_sites, annotations)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.ID.String(), run.CreatedAt.Time(), optionsJSON, run.Fingerprint.String(), failedJSON, annotationsJSON)
	if err != nil {
		return apperrors.DatabaseError(err.Error())
	}

	for _, table := range []*enrichment.Table{run.SerThr, run.Tyr} {
		if table == nil {
			continue
		}
		for _, row := range table.Rows {
			rowJSON, err := json.Marshal(row)
			if err != nil {
				return apperrors.Wrap(err, "failed to encode kinase row")
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO enrichment_kinases (run_id, variant, kinase, row_data, total_sites, total_up, total_down, total_unreg)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, run.ID.String(), string(table.Variant), row.Kinase.String(), rowJSON,
				table.TotalSites, table.TotalUp, table.TotalDown, table.TotalUnregulated)
			if err != nil {
				return apperrors.DatabaseError(err.Error())
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.DatabaseError(err.Error())
	}
	return nil
}

type runHeader struct {
	ID          string    `db:"id"`
	CreatedAt   time.Time `db:"created_at"`
	Options     []byte    `db:"options"`
	Fingerprint string    `db:"fingerprint"`
	FailedSites []byte    `db:"failed_sites"`
	Annotations []byte    `db:"annotations"`
}

type kinaseRow struct {
	Variant    string `db:"variant"`
	Kinase     string `db:"kinase"`
	RowData    []byte `db:"row_data"`
	TotalSites int    `db:"total_sites"`
	TotalUp    int    `db:"total_up"`
	TotalDown  int    `db:"total_down"`
	TotalUnreg int    `db:"total_unreg"`
}

// GetRun rebuilds a run from its stored rows.
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*enrichment.Run, error) {
	var header runHeader
	err := r.db.GetContext(ctx, &header, `
		SELECT id, created_at, options, fingerprint, failed_sites, annotations
		FROM enrichment_runs
		WHERE id = $1
	`, id.String())
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("run " + id.String())
	}
	if err != nil {
		return nil, apperrors.DatabaseError(err.Error())
	}

	run := &enrichment.Run{
		ID:          core.RunID(header.ID),
		CreatedAt:   core.NewTimestamp(header.CreatedAt),
		Fingerprint: core.Hash(header.Fingerprint),
	}
	if err := json.Unmarshal(header.Options, &run.Options); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode run options")
	}
	if len(header.FailedSites) > 0 {
		if err := json.Unmarshal(header.FailedSites, &run.FailedSites); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode failed sites")
		}
	}
	if len(header.Annotations) > 0 {
		if err := json.Unmarshal(header.Annotations, &run.Annotations); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode annotations")
		}
	}

	var rows []kinaseRow
	err = r.db.SelectContext(ctx, &rows, `
		SELECT variant, kinase, row_data, total_sites, total_up, total_down, total_unreg
		FROM enrichment_kinases
		WHERE run_id = $1
		ORDER BY variant, kinase
	`, id.String())
	if err != nil {
		return nil, apperrors.DatabaseError(err.Error())
	}

	for _, row := range rows {
		variant := site.Variant(row.Variant)
		table := run.SerThr
		if variant == site.VariantTyr {
			table = run.Tyr
		}
		if table == nil {
			table = &enrichment.Table{
				Variant:          variant,
				TotalSites:       row.TotalSites,
				TotalUp:          row.TotalUp,
				TotalDown:        row.TotalDown,
				TotalUnregulated: row.TotalUnreg,
			}
			if variant == site.VariantTyr {
				run.Tyr = table
			} else {
				run.SerThr = table
			}
		}
		var entry enrichment.KinaseEnrichment
		if err := json.Unmarshal(row.RowData, &entry); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode kinase row")
		}
		table.Rows = append(table.Rows, entry)
	}
	if run.SerThr != nil {
		run.SerThr.SortRows()
	}
	if run.Tyr != nil {
		run.Tyr.SortRows()
	}
	return run, nil
}

// ListRuns returns run headers, newest first, without kinase rows.
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*enrichment.Run, error) {
	query := `
		SELECT id, created_at, options, fingerprint, failed_sites, annotations
		FROM enrichment_runs
		ORDER BY created_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var headers []runHeader
	if err := r.db.SelectContext(ctx, &headers, query, args...); err != nil {
		return nil, apperrors.DatabaseError(err.Error())
	}

	runs := make([]*enrichment.Run, 0, len(headers))
	for _, h := range headers {
		run := &enrichment.Run{
			ID:          core.RunID(h.ID),
			CreatedAt:   core.NewTimestamp(h.CreatedAt),
			Fingerprint: core.Hash(h.Fingerprint),
		}
		if err := json.Unmarshal(h.Options, &run.Options); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode run options")
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// DeleteRun removes a run and its kinase rows.
func (r *RunRepositoryImpl) DeleteRun(ctx context.Context, id core.RunID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM enrichment_runs WHERE id = $1`, id.String())
	if err != nil {
		return apperrors.DatabaseError(err.Error())
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("run " + id.String())
	}
	return nil
}
