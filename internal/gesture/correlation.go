package gesture

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Pearson calculates the Pearson product-moment correlation coefficient
// between two series.
// The series are paired from their most recent end: if the lengths differ,
// the older samples of the longer one are ignored.
// Returns 0 when either series is constant or has fewer than two samples.
func Pearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}

	x := a[len(a)-n:]
	y := b[len(b)-n:]

	sumX := floats.Sum(x)
	sumY := floats.Sum(y)
	sumXY := floats.Dot(x, y)
	sumX2 := floats.Dot(x, x)
	sumY2 := floats.Dot(y, y)

	fn := float64(n)
	numerator := fn*sumXY - sumX*sumY
	varX := fn*sumX2 - sumX*sumX
	varY := fn*sumY2 - sumY*sumY

	// Constant input leaves only rounding residue in the variance terms.
	if degenerate(varX, fn*sumX2) || degenerate(varY, fn*sumY2) {
		return 0
	}

	denominator := math.Sqrt(varX * varY)
	if denominator == 0 {
		return 0
	}

	r := numerator / denominator
	if math.IsNaN(r) {
		return 0
	}

	// Clamp floating point overshoot.
	return math.Max(-1, math.Min(1, r))
}

// varianceEpsilon is the relative size below which a variance term is
// treated as zero.
const varianceEpsilon = 1e-12

func degenerate(variance, scale float64) bool {
	return variance <= varianceEpsilon*scale
}

// axisCorrelation returns the mean of the x and y correlations between a
// target trace and a hand trace over their most recent n samples.
func axisCorrelation(target []TargetSample, hand []Sample) float64 {
	n := len(target)
	if len(hand) < n {
		n = len(hand)
	}

	targetXs := make([]float64, n)
	targetYs := make([]float64, n)
	handXs := make([]float64, n)
	handYs := make([]float64, n)

	target = target[len(target)-n:]
	hand = hand[len(hand)-n:]
	for i := 0; i < n; i++ {
		targetXs[i] = target[i].X
		targetYs[i] = target[i].Y
		handXs[i] = hand[i].X
		handYs[i] = hand[i].Y
	}

	corrX := Pearson(targetXs, handXs)
	corrY := Pearson(targetYs, handYs)

	return (corrX + corrY) / 2
}
