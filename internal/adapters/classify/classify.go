// Package classify defines the keyword classifier port and its wire-safe result types
package classify

import (
	"context"
	"math"
)

// Position is the stance a keyword takes on the order/chaos axis
type Position string

// Position values
const (
	PositionOrder   Position = "order"
	PositionChaos   Position = "chaos"
	PositionNeutral Position = "neutral"
)

// Valid reports whether p is one of the known positions
func (p Position) Valid() bool {
	switch p {
	case PositionOrder, PositionChaos, PositionNeutral:
		return true
	}
	return false
}

// Result is a single classified keyword
// Score runs -1 (pure chaos) to +1 (pure order), Confidence 0 to 1
type Result struct {
	Pos        Position `json:"pos"`
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
}

// default confidence for results we had to make up ourselves
const defaultConfidence = 0.3

// Neutral is the safe fallback used whenever the upstream answer is missing or junk
func Neutral() Result {
	return Result{Pos: PositionNeutral, Score: 0, Confidence: defaultConfidence}
}

// Sanitize coerces an upstream result into the domain's invariants
// an unknown position discards the whole item; bad numbers are repaired per field
func Sanitize(r Result) Result {
	if !r.Pos.Valid() {
		return Neutral()
	}
	if math.IsNaN(r.Score) || math.IsInf(r.Score, 0) {
		r.Score = 0
	}
	r.Score = clamp(r.Score, -1, 1)
	if math.IsNaN(r.Confidence) || math.IsInf(r.Confidence, 0) {
		r.Confidence = defaultConfidence
	}
	r.Confidence = clamp(r.Confidence, 0, 1)
	return r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Outcome pairs a terminal Result with how it was obtained
// Degraded means the upstream call failed and the neutral fallback was recorded
type Outcome struct {
	Result   Result
	Degraded bool
	Reason   string
}

// Ok wraps a genuine upstream result
func Ok(r Result) Outcome { return Outcome{Result: r} }

// Degrade wraps the neutral fallback with the failure reason
func Degrade(reason string) Outcome {
	return Outcome{Result: Neutral(), Degraded: true, Reason: reason}
}

// Classifier is the port intake and sweep call through
// ClassifyBatch returns exactly one Result per input text, in input order
type Classifier interface {
	ClassifyOne(ctx context.Context, text string) (Result, error)
	ClassifyBatch(ctx context.Context, texts []string) ([]Result, error)
}
