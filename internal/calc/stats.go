// Small numeric helpers for metric summaries
package calc

import "sort"

// Mean after dropping trimFraction of the sorted samples from each end.
// At least one sample always survives the trim.
func TrimmedMeanFloat64(values []float64, trimFraction float64) (mean float64) {
	if len(values) == 0 {
		return
	}
	trimFraction = max(trimFraction, 0)

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	trim := int(float64(len(sorted)) * trimFraction)
	if trim*2 >= len(sorted) {
		trim = (len(sorted) - 1) / 2
	}
	kept := sorted[trim : len(sorted)-trim]

	var sum float64
	for _, value := range kept {
		sum += value
	}
	mean = sum / float64(len(kept))
	return
}
