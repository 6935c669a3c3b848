package scoring

import "math"

// decayFactor halves a signal's weight every halfLifeDays.
func decayFactor(ageDays, halfLifeDays float64) float64 {
	if halfLifeDays <= 0 {
		return 1.0
	}
	return math.Exp(-ageDays * math.Ln2 / halfLifeDays)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
