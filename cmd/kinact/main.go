package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"kinact/adapters/excel"
	"kinact/adapters/postgres"
	"kinact/app"
	"kinact/domain/scoring"
	"kinact/domain/site"
	"kinact/internal/config"
	"kinact/ports"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "kinact",
		Short: "Kinase activity inference from phosphoproteomics data",
	}
	rootCmd.AddCommand(
		newScoreCmd(),
		newEnrichCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadStack builds the matrix source and config shared by both commands.
func loadStack() (*config.Config, ports.MatrixSource, []site.Variant, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	source := excel.NewMatrixReader(
		excel.MatrixFiles{Matrix: cfg.Matrices.SerThrMatrix, Background: cfg.Matrices.SerThrBackground},
		excel.MatrixFiles{Matrix: cfg.Matrices.TyrMatrix, Background: cfg.Matrices.TyrBackground},
	)
	var variants []site.Variant
	if cfg.Matrices.SerThrMatrix != "" {
		variants = append(variants, site.VariantSerThr)
	}
	if cfg.Matrices.TyrMatrix != "" {
		variants = append(variants, site.VariantTyr)
	}
	return cfg, source, variants, nil
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newScoreCmd() *cobra.Command {
	var priming, favorability bool
	var method string
	var topK int

	cmd := &cobra.Command{
		Use:   "score [sequence]",
		Short: "Score one phosphosite against the kinase panel",
		Long: `Score a phosphosite sequence against every kinase in its variant panel.

Example: kinact score "FVKQKAS*QSPQK" --method avg --top 15`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, source, variants, err := loadStack()
			if err != nil {
				return err
			}
			svc, err := app.NewScoringService(source, variants...)
			if err != nil {
				return err
			}
			svc.SetPromiscuityThreshold(cfg.Defaults.PromiscuityThreshold)
			resp, err := svc.Score(app.ScoreRequest{
				Sequence:       args[0],
				PhosphoPriming: priming,
				Favorability:   favorability,
				Method:         scoring.Method(method),
				TopK:           topK,
			})
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	cmd.Flags().BoolVar(&priming, "phospho-priming", false, "keep non-central phospho-residues lowercase")
	cmd.Flags().BoolVar(&favorability, "favorability", false, "include the acceptor-position weight (Ser/Thr only)")
	cmd.Flags().StringVar(&method, "method", "avg", "multi-acceptor collapse: min, max, or avg")
	cmd.Flags().IntVar(&topK, "top", 15, "number of ranked kinases to report")
	return cmd
}

func newEnrichCmd() *cobra.Command {
	var priming, favorability bool
	var method string
	var fcThreshold, cutoff float64
	var topK, workers int
	var save bool

	cmd := &cobra.Command{
		Use:   "enrich [batch-file]",
		Short: "Run kinase enrichment over a batch table",
		Long: `Run the enrichment pipeline over a CSV/TSV/XLSX table of
(sequence, log2 fold change) rows and print the per-kinase statistics.

Example: kinact enrich experiment.csv --fc-threshold 1.5 --cutoff 90`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, source, variants, err := loadStack()
			if err != nil {
				return err
			}
			scoringSvc, err := app.NewScoringService(source, variants...)
			if err != nil {
				return err
			}

			var runRepo ports.RunRepository
			if save {
				db, err := postgres.Connect(cfg.Database.URL)
				if err != nil {
					return err
				}
				defer db.Close()
				runRepo = postgres.NewRunRepository(db)
			}

			svc := app.NewEnrichmentService(scoringSvc.Scorer(), runRepo)
			if workers > 0 {
				svc.SetWorkers(workers)
			}

			rows, err := excel.NewBatchReader(args[0]).ReadBatch("")
			if err != nil {
				return err
			}

			opts := cfg.Options()
			if cmd.Flags().Changed("fc-threshold") {
				opts.FCThreshold = fcThreshold
			}
			if cmd.Flags().Changed("cutoff") {
				opts.PercentileCutoff = cutoff
			}
			if cmd.Flags().Changed("method") {
				opts.Method = scoring.Method(method)
			}
			if cmd.Flags().Changed("top") {
				opts.TopK = topK
			}
			opts.PhosphoPriming = priming
			opts.Favorability = favorability

			run, err := svc.Enrich(context.Background(), rows, opts)
			if err != nil {
				return err
			}
			return printJSON(run)
		},
	}
	cmd.Flags().BoolVar(&priming, "phospho-priming", false, "keep non-central phospho-residues lowercase")
	cmd.Flags().BoolVar(&favorability, "favorability", false, "include the acceptor-position weight (Ser/Thr only)")
	cmd.Flags().StringVar(&method, "method", "avg", "window collapse: min, max, avg, or all")
	cmd.Flags().Float64Var(&fcThreshold, "fc-threshold", 1.5, "inclusive |log2FC| regulation boundary")
	cmd.Flags().Float64Var(&cutoff, "cutoff", 90, "strict percentile cutoff for kinase-set membership")
	cmd.Flags().IntVar(&topK, "top", 15, "top kinases annotated per site (0 disables)")
	cmd.Flags().IntVar(&workers, "workers", 0, "scoring parallelism (0 = all CPUs)")
	cmd.Flags().BoolVar(&save, "save", false, "persist the run to the configured database")
	return cmd
}
