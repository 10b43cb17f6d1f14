package train

import "math"

// StepLR implements the standard staircase schedule for this architecture:
// the base rate divided by 10 every stepEpochs epochs. stepEpochs <= 0
// disables decay.
func StepLR(base float64, stepEpochs, epoch int) float64 {
	if stepEpochs <= 0 {
		return base
	}
	return base * math.Pow(0.1, float64(epoch/stepEpochs))
}
