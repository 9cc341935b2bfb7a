package scoring

// Func computes the points a predicted score earns against the final result.
type Func func(predictedHome, predictedAway, actualHome, actualAway int) int

// Points awards 3 for the exact score, 2 for the right goal difference,
// 1 when either side's goal count matches, 0 otherwise. Rules are evaluated
// in that order and the first match wins.
func Points(predictedHome, predictedAway, actualHome, actualAway int) int {
	if predictedHome == actualHome && predictedAway == actualAway {
		return 3
	}
	if predictedHome-predictedAway == actualHome-actualAway {
		return 2
	}
	if predictedHome == actualHome || predictedAway == actualAway {
		return 1
	}
	return 0
}
