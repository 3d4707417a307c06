package service

import "math"

// DimensionWeights controls how the three dimension groups combine into the
// final score. Weights are normalised by their sum, so they need not add to 1.
type DimensionWeights struct {
	Technical     float64
	Communication float64
	Behavioral    float64
}

// GradeBand maps a score floor to an ordinal grade label. Bands are evaluated
// highest floor first; the first band whose floor the score reaches wins.
type GradeBand struct {
	Min   float64
	Label string
}

// DefaultDimensionWeights reflects a technically weighted interview.
func DefaultDimensionWeights() DimensionWeights {
	return DimensionWeights{Technical: 0.5, Communication: 0.3, Behavioral: 0.2}
}

// DefaultGradeBands returns the standard non-overlapping grade thresholds.
func DefaultGradeBands() []GradeBand {
	return []GradeBand{
		{Min: 8.5, Label: "Excellent"},
		{Min: 7.0, Label: "Good"},
		{Min: 5.5, Label: "Average"},
		{Min: 4.0, Label: "Below Average"},
		{Min: 0, Label: "Weak"},
	}
}

// computeFinalScore derives the deterministic final score on a [0,10] scale
// with one fractional digit. The model's own overall number is never trusted;
// only the named sub-scores inside each dimension group feed the result.
func computeFinalScore(technical, communication, behavioral map[string]float64, weights DimensionWeights) float64 {
	total := weights.Technical + weights.Communication + weights.Behavioral
	if total <= 0 {
		return 0
	}

	weighted := weights.Technical*dimensionMean(technical) +
		weights.Communication*dimensionMean(communication) +
		weights.Behavioral*dimensionMean(behavioral)

	return math.Round(weighted/total*10) / 10
}

// dimensionMean averages the named sub-scores of one dimension group, clamping
// each into [0,10]. An empty group scores zero.
func dimensionMean(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}

	var sum float64
	for _, score := range scores {
		sum += clampScore(score)
	}

	return sum / float64(len(scores))
}

// gradeFor maps the final score onto its grade band.
func gradeFor(score float64, bands []GradeBand) string {
	for _, band := range bands {
		if score >= band.Min {
			return band.Label
		}
	}

	if len(bands) == 0 {
		return ""
	}

	return bands[len(bands)-1].Label
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
