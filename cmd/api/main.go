package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kinact/adapters/excel"
	"kinact/adapters/postgres"
	"kinact/app"
	"kinact/domain/site"
	"kinact/internal/api"
	"kinact/internal/config"
	"kinact/ports"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] Failed to load configuration: %v", err)
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

	scoringSvc, err := app.NewScoringService(source, variants...)
	if err != nil {
		log.Fatalf("[API] Failed to load matrices: %v", err)
	}
	scoringSvc.SetPromiscuityThreshold(cfg.Defaults.PromiscuityThreshold)

	var runRepo ports.RunRepository
	if cfg.Database.Enabled {
		db, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			log.Fatalf("[API] Failed to connect to database: %v", err)
		}
		defer db.Close()
		runRepo = postgres.NewRunRepository(db)
	}

	enrichmentSvc := app.NewEnrichmentService(scoringSvc.Scorer(), runRepo)
	if cfg.Defaults.Workers > 0 {
		enrichmentSvc.SetWorkers(cfg.Defaults.Workers)
	}

	server := api.NewServer(scoringSvc, enrichmentSvc, runRepo, cfg.Options())
	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[API] Listening on :%s", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[API] Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("[API] Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}
}
