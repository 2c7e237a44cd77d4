package core

import "math"

const (
	trimmedMaxIterations = 10
	trimmedConvergence   = 0.1
	trimmedZThreshold    = 2.0
)

// RobustEstimate is the result of the iterative trimmed mean procedure.
type RobustEstimate struct {
	Mean       float64
	Std        float64
	Included   []float64
	Iterations int
}

// RobustMeanStd computes an outlier-resistant mean and standard deviation
// over per-participant average deltas.
//
// Starting from the full set, it repeatedly computes the population mean
// and std, then discards values whose z-score exceeds 2.0, until the mean
// converges (moves less than 0.1 between rounds), a filtering round removes
// nothing or everything, or 10 iterations have run. Minority clusters more
// than 2 sigma from the bulk are excluded even when honest.
func RobustMeanStd(values []float64) RobustEstimate {
	current := append([]float64(nil), values...)
	prevMean := 0.0
	iterations := 0

	for iterations < trimmedMaxIterations {
		mean, std := meanStd(current)
		if math.Abs(mean-prevMean) < trimmedConvergence {
			break
		}

		divisor := std
		if divisor == 0 {
			divisor = 1
		}
		filtered := current[:0:0]
		for _, v := range current {
			if math.Abs(v-mean)/divisor <= trimmedZThreshold {
				filtered = append(filtered, v)
			}
		}

		if len(filtered) == len(current) || len(filtered) == 0 {
			break
		}

		current = filtered
		prevMean = mean
		iterations++
	}

	mean, std := meanStd(current)
	return RobustEstimate{
		Mean:       mean,
		Std:        std,
		Included:   current,
		Iterations: iterations,
	}
}

// meanStd returns the population mean and standard deviation.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sqSum float64
	for _, v := range values {
		d := v - mean
		sqSum += d * d
	}
	return mean, math.Sqrt(sqSum / float64(len(values)))
}
