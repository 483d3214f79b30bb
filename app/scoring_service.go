package app

import (
	"log"

	"kinact/adapters/stats/engine"
	"kinact/domain/core"
	"kinact/domain/scoring"
	"kinact/domain/site"
	apperrors "kinact/internal/errors"
	"kinact/ports"
)

// ScoringService runs the single-site path: normalize one sequence and
// rank the panel against it.
type ScoringService struct {
	scorer               *engine.Scorer
	promiscuityThreshold float64
}

// ScoreRequest holds one site query.
type ScoreRequest struct {
	Sequence       string
	PhosphoPriming bool
	Favorability   bool
	Method         scoring.Method
	TopK           int
}

// ScoreResponse is the ranked outcome plus the site-level summaries.
type ScoreResponse struct {
	Sequence         string                `json:"sequence"`
	Variant          site.Variant          `json:"variant"`
	Ranking          []scoring.KinaseScore `json:"ranking"`
	MedianPercentile float64               `json:"median_percentile"`
	Promiscuity      int                   `json:"promiscuity_index"`
}

// NewScoringService builds the service from the loaded variant panels.
func NewScoringService(source ports.MatrixSource, variants ...site.Variant) (*ScoringService, error) {
	scorer := engine.NewScorer()
	for _, v := range variants {
		m, err := source.LoadMatrix(v)
		if err != nil {
			return nil, err
		}
		b, err := source.LoadBackground(v)
		if err != nil {
			return nil, err
		}
		if err := scorer.Register(m, b); err != nil {
			return nil, err
		}
		log.Printf("[ScoringService] Registered %s panel (%d kinases)", v, m.PanelSize())
	}
	return &ScoringService{scorer: scorer, promiscuityThreshold: scoring.DefaultPromiscuityThreshold}, nil
}

// NewScoringServiceWithScorer wires an already-registered scorer.
func NewScoringServiceWithScorer(scorer *engine.Scorer) *ScoringService {
	return &ScoringService{scorer: scorer, promiscuityThreshold: scoring.DefaultPromiscuityThreshold}
}

// SetPromiscuityThreshold overrides the percentile threshold behind the
// promiscuity index. Values outside [0, 100] are ignored.
func (s *ScoringService) SetPromiscuityThreshold(v float64) {
	if v < 0 || v > 100 {
		return
	}
	s.promiscuityThreshold = v
}

// Scorer exposes the underlying engine for the batch service.
func (s *ScoringService) Scorer() *engine.Scorer { return s.scorer }

// Score normalizes the sequence and scores it against its variant panel.
func (s *ScoringService) Score(req ScoreRequest) (*ScoreResponse, error) {
	method := req.Method
	if method == "" {
		method = scoring.MethodAvg
	}
	topK := req.TopK
	if topK == 0 {
		topK = 15
	}

	ns, err := site.Parse(site.StripComodifications(req.Sequence), site.Options{PhosphoPriming: req.PhosphoPriming})
	if err != nil {
		return nil, toAppError(err, req.Sequence)
	}

	result, err := s.scorer.Score(ns, method, req.Favorability)
	if err != nil {
		return nil, toAppError(err, req.Sequence)
	}

	ranking, err := result.Top(topK)
	if err != nil {
		return nil, toAppError(err, req.Sequence)
	}
	return &ScoreResponse{
		Sequence:         req.Sequence,
		Variant:          ns.Variant,
		Ranking:          ranking,
		MedianPercentile: result.MedianPercentile(),
		Promiscuity:      result.PromiscuityIndex(s.promiscuityThreshold),
	}, nil
}

// toAppError maps domain sentinels onto the coded error surface.
func toAppError(err error, sequence string) error {
	switch {
	case err == nil:
		return nil
	case core.IsUnparsableSequence(err):
		return apperrors.UnparsableSequence(sequence, err.Error())
	case core.IsConfiguration(err):
		return apperrors.ConfigInvalid(err.Error())
	case core.IsSchemaMismatch(err):
		return apperrors.SchemaMismatch(err.Error())
	default:
		return apperrors.Wrap(err, "scoring failed")
	}
}
