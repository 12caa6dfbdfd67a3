// Package riskscore implements the five-factor weighted risk composite run
// over every canonical address/credential pair: weak-password use, weak
// hash algorithm, breach history, PII exposure, and dataset anomaly count,
// normalized to a 0-100 score and bucketed into a risk level.
package riskscore

import (
	"fmt"
	"strings"

	"github.com/jeleniel/breachcorpus/pkg/detect"
)

// Level is a bucketed risk category.
type Level string

const (
	Green    Level = "Green"
	Yellow   Level = "Yellow"
	Orange   Level = "Orange"
	Red      Level = "Red"
	Critical Level = "Critical"
)

// Factors is the breakdown of individual factor scores that produced a
// Score's normalized value.
type Factors struct {
	WeakPassword uint8
	WeakHash     uint8
	Breach       uint8
	PII          uint8
	Anomaly      uint8
}

// Score is the result of scoring one subject.
type Score struct {
	Value       uint8
	Level       Level
	Factors     Factors
	Explanation string
}

// Weights configures the per-factor contribution to the raw weighted sum.
type Weights struct {
	WeakPassword float64
	WeakHash     float64
	Breach       float64
	PII          float64
	Anomaly      float64
}

// DefaultWeights matches the factor percentages in the scoring formula:
// weak password 30%, weak hash 20%, breach history 40%, PII 15%, anomaly 10%.
var DefaultWeights = Weights{
	WeakPassword: 0.30,
	WeakHash:     0.20,
	Breach:       0.40,
	PII:          0.15,
	Anomaly:      0.10,
}

// Engine scores subjects using a fixed set of weights.
type Engine struct {
	weights Weights
}

// New builds an engine with DefaultWeights.
func New() *Engine { return &Engine{weights: DefaultWeights} }

// NewWithWeights builds an engine with custom weights.
func NewWithWeights(w Weights) *Engine { return &Engine{weights: w} }

// Score computes the composite risk score for one subject.
//
// breachCount contributes min(breachCount*10, 40) base points, plus a
// further +20 bonus (still capped at 40 overall) if newCredentialSinceBreach
// is set and breachCount > 0. piiTypes contributes per-type points capped at
// 25. anomalyCount contributes 1 point each, capped at 8. The weighted sum
// is normalized against a fixed denominator of 123 (the sum of each
// factor's maximum contribution) and truncated, not rounded, to an integer
// 0-100 score.
func (e *Engine) Score(weakPassword, weakHashDetected bool, breachCount int, newCredentialSinceBreach bool, piiTypes []detect.PiiType, anomalyCount int) Score {
	weakPasswordScore := uint8(0)
	if weakPassword {
		weakPasswordScore = 30
	}

	weakHashScore := uint8(0)
	if weakHashDetected {
		weakHashScore = 20
	}

	breachBaseInt := clampInt(breachCount) * 10
	if breachBaseInt > 40 {
		breachBaseInt = 40
	}
	breachBonusInt := 0
	if newCredentialSinceBreach && breachCount > 0 {
		breachBonusInt = 20
	}
	breachScore := uint8(minInt(breachBaseInt+breachBonusInt, 40))

	piiScore := piiScore(piiTypes)

	anomalyScore := uint8(minInt(clampInt(anomalyCount), 8))

	raw := float64(weakPasswordScore)*e.weights.WeakPassword +
		float64(weakHashScore)*e.weights.WeakHash +
		float64(breachScore)*e.weights.Breach +
		float64(piiScore)*e.weights.PII +
		float64(anomalyScore)*e.weights.Anomaly

	normalized := uint8((raw / 123.0) * 100.0)

	return Score{
		Value: normalized,
		Level: levelFor(normalized),
		Factors: Factors{
			WeakPassword: weakPasswordScore,
			WeakHash:     weakHashScore,
			Breach:       breachScore,
			PII:          piiScore,
			Anomaly:      anomalyScore,
		},
		Explanation: explain(weakPassword, weakHashDetected, breachCount, newCredentialSinceBreach, piiTypes, anomalyCount),
	}
}

func levelFor(normalized uint8) Level {
	switch {
	case normalized <= 10:
		return Green
	case normalized <= 25:
		return Yellow
	case normalized <= 50:
		return Orange
	case normalized <= 75:
		return Red
	default:
		return Critical
	}
}

func piiScore(piiTypes []detect.PiiType) uint8 {
	var score int
	for _, t := range piiTypes {
		switch t {
		case detect.SocialSecurityNum, detect.CreditCardNumber:
			score += 10
		case detect.NationalID:
			score += 5
		case detect.PhoneNumber, detect.IPv4Address, detect.IPv6Address:
			score += 3
		default:
			score += 1
		}
	}
	return uint8(minInt(clampInt(score), 25))
}

func explain(weakPassword, weakHashDetected bool, breachCount int, newCredentialSinceBreach bool, piiTypes []detect.PiiType, anomalyCount int) string {
	var parts []string

	if weakPassword {
		parts = append(parts, "uses weak/common password")
	}
	if weakHashDetected {
		parts = append(parts, "hash algorithm is weak (MD5/SHA1/SHA256)")
	}
	if breachCount > 0 {
		parts = append(parts, fmt.Sprintf("found in %d breach(es)", breachCount))
		if newCredentialSinceBreach {
			parts = append(parts, "new credential observed since breach, active exploitation risk")
		}
	}
	if len(piiTypes) > 0 {
		parts = append(parts, fmt.Sprintf("contains %d PII field(s)", len(piiTypes)))
	}
	if anomalyCount > 0 {
		parts = append(parts, fmt.Sprintf("%d anomalies detected", anomalyCount))
	}

	if len(parts) == 0 {
		return "no significant risk factors detected"
	}
	return strings.Join(parts, "; ")
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
