package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kinact/app"
	"kinact/domain/core"
	"kinact/domain/enrichment"
	"kinact/domain/scoring"
	apperrors "kinact/internal/errors"
	"kinact/ports"
)

// Server exposes the scoring and enrichment services over JSON.
type Server struct {
	scoring    *app.ScoringService
	enrichment *app.EnrichmentService
	runs       ports.RunRepository // optional
	defaults   enrichment.Options
}

// NewServer wires the services into a router-ready server. runRepo may be
// nil; the run lookup endpoints are then not mounted.
func NewServer(scoringSvc *app.ScoringService, enrichmentSvc *app.EnrichmentService, runRepo ports.RunRepository, defaults enrichment.Options) *Server {
	return &Server{scoring: scoringSvc, enrichment: enrichmentSvc, runs: runRepo, defaults: defaults}
}

// Router builds the chi router with all endpoints mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/score", s.handleScore)
		r.Post("/enrichment", s.handleEnrichment)
		if s.runs != nil {
			r.Get("/runs", s.handleListRuns)
			r.Get("/runs/{id}", s.handleGetRun)
			r.Delete("/runs/{id}", s.handleDeleteRun)
		}
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// scorePayload is the request body for the single-site path.
type scorePayload struct {
	Sequence       string `json:"sequence"`
	PhosphoPriming bool   `json:"phospho_priming"`
	Favorability   bool   `json:"favorability"`
	Method         string `json:"method,omitempty"`
	TopK           int    `json:"top_k,omitempty"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var payload scorePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperrors.InvalidInput("request body must be JSON"))
		return
	}
	if payload.Sequence == "" {
		writeError(w, apperrors.InvalidInput("sequence is required"))
		return
	}

	resp, err := s.scoring.Score(app.ScoreRequest{
		Sequence:       payload.Sequence,
		PhosphoPriming: payload.PhosphoPriming,
		Favorability:   payload.Favorability,
		Method:         scoring.Method(payload.Method),
		TopK:           payload.TopK,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// enrichmentPayload is the request body for the batch path. Option fields
// fall back to the server defaults when omitted.
type enrichmentPayload struct {
	Sites []struct {
		Sequence string  `json:"sequence"`
		Log2FC   float64 `json:"log2fc"`
	} `json:"sites"`
	FCThreshold      *float64 `json:"fc_threshold,omitempty"`
	PercentileCutoff *float64 `json:"percentile_cutoff,omitempty"`
	Method           string   `json:"method,omitempty"`
	PhosphoPriming   bool     `json:"phospho_priming"`
	Favorability     bool     `json:"favorability"`
	TopK             *int     `json:"top_k,omitempty"`
}

func (s *Server) handleEnrichment(w http.ResponseWriter, r *http.Request) {
	var payload enrichmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperrors.InvalidInput("request body must be JSON"))
		return
	}
	if len(payload.Sites) == 0 {
		writeError(w, apperrors.InvalidInput("sites must not be empty"))
		return
	}

	opts := s.defaults
	if payload.FCThreshold != nil {
		opts.FCThreshold = *payload.FCThreshold
	}
	if payload.PercentileCutoff != nil {
		opts.PercentileCutoff = *payload.PercentileCutoff
	}
	if payload.Method != "" {
		opts.Method = scoring.Method(payload.Method)
	}
	if payload.TopK != nil {
		opts.TopK = *payload.TopK
	}
	opts.PhosphoPriming = payload.PhosphoPriming
	opts.Favorability = payload.Favorability

	rows := make([]enrichment.InputRow, len(payload.Sites))
	for i, site := range payload.Sites {
		rows[i] = enrichment.InputRow{Index: i, Sequence: site.Sequence, Log2FC: site.Log2FC}
	}

	run, err := s.enrichment.Enrich(r.Context(), rows, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, apperrors.InvalidInput("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}
	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	run, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	if err := s.runs.DeleteRun(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id.String()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

// writeError maps error codes onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case apperrors.CodeUnparsableSequence, apperrors.CodeInvalidInput:
		status = http.StatusBadRequest
	case apperrors.CodeConfigInvalid:
		status = http.StatusUnprocessableEntity
	case apperrors.CodeSchemaMismatch:
		status = http.StatusConflict
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  code,
	})
}
