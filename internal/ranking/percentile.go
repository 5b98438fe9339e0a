package ranking

import "math"

// Percentile returns the share (0-100) of the population strictly below
// value. With higherIsBetter false the scale is inverted so small values
// score high. A population of one scores 100: a sole candidate has nothing
// to lose to.
func Percentile(value float64, population []float64, higherIsBetter bool) float64 {
	if len(population) == 0 {
		return 0
	}
	if len(population) == 1 {
		return 100
	}
	below := 0
	for _, v := range population {
		if v < value {
			below++
		}
	}
	p := float64(below) / float64(len(population)) * 100
	if higherIsBetter {
		return p
	}
	return 100 - p
}

// roundHalfUp is applied at every aggregation level so component scores
// and composites land on the same integers the scoring was tuned against.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
