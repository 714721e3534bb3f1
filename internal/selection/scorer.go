package selection

import (
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/runeforge/internal/blueprint"
	"github.com/xkilldash9x/runeforge/internal/catalog"
)

const (
	latencyBonus = 0.10
	globalBonus  = 0.05
	// normalizer is the largest raw score reachable with unit weights and
	// both traffic bonuses: 1 + 0.10 + 0.05.
	normalizer = 1.15
)

// Breakdown holds the weighted contribution of each metric to a score.
type Breakdown struct {
	Quality  float64 `json:"quality"`
	SLO      float64 `json:"slo"`
	Cost     float64 `json:"cost"`
	Security float64 `json:"security"`
	Ops      float64 `json:"ops"`
	Latency  float64 `json:"latency_bonus"`
	Global   float64 `json:"global_bonus"`
	Raw      float64 `json:"raw"`
	Score    float64 `json:"score"`
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (b Breakdown) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddFloat64("quality", b.Quality)
	enc.AddFloat64("slo", b.SLO)
	enc.AddFloat64("cost", b.Cost)
	enc.AddFloat64("security", b.Security)
	enc.AddFloat64("ops", b.Ops)
	if b.Latency != 0 {
		enc.AddFloat64("latency_bonus", b.Latency)
	}
	if b.Global != 0 {
		enc.AddFloat64("global_bonus", b.Global)
	}
	enc.AddFloat64("raw", b.Raw)
	return nil
}

// ScoreBreakdown computes the score of m under w for the given traffic profile and
// returns every intermediate term.
func ScoreBreakdown(w catalog.Weights, m catalog.Metrics, tp blueprint.TrafficProfile) Breakdown {
	// The float64 conversions force rounding after each product so no
	// platform fuses them into multiply-adds; scores feed the plan hash.
	b := Breakdown{
		Quality:  float64(w.Quality * m.Quality),
		SLO:      float64(w.SLO * m.SLO),
		Cost:     float64(w.Cost * m.Cost),
		Security: float64(w.Security * m.Security),
		Ops:      float64(w.Ops * m.Ops),
	}
	raw := b.Quality + b.SLO + b.Cost + b.Security + b.Ops
	if tp.LatencySensitive {
		b.Latency = float64(latencyBonus * m.SLO)
		raw += b.Latency
	}
	if tp.Global {
		b.Global = float64(globalBonus * m.Ops)
		raw += b.Global
	}
	b.Raw = raw
	b.Score = raw / normalizer
	return b
}

// Score is the normalized weighted score of m. It lies in [0,1] when the
// metrics do and the weights sum to 1.
func Score(w catalog.Weights, m catalog.Metrics, tp blueprint.TrafficProfile) float64 {
	return ScoreBreakdown(w, m, tp).Score
}
