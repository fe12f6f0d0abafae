package stats

import "slices"

// Number is the set of value types the descriptive statistics accept.
type Number interface {
	~int | ~int64 | ~float64
}

// Summary holds the descriptive statistics reported for a distribution.
type Summary struct {
	Count   int     `json:"count"`
	Sum     float64 `json:"sum"`
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
}

// Sum adds up all values.
func Sum[T Number](values []T) float64 {
	total := 0.0
	for _, v := range values {
		total += float64(v)
	}
	return total
}

// Average returns the arithmetic mean, or 0 for an empty slice.
func Average[T Number](values []T) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Median sorts a copy of values and takes the middle element,
// or the mean of the two middle elements for even lengths. Empty input yields 0.
func Median[T Number](values []T) float64 {
	if len(values) == 0 {
		return 0
	}

	// Work on a copy to avoid mutating the original
	temp := slices.Clone(values)
	slices.Sort(temp)

	n := len(temp)
	if n%2 == 1 {
		return float64(temp[n/2])
	}
	return (float64(temp[n/2-1]) + float64(temp[n/2])) / 2.0
}

// Summarize computes count, sum, average and median in one go.
func Summarize[T Number](values []T) Summary {
	return Summary{
		Count:   len(values),
		Sum:     Sum(values),
		Average: Average(values),
		Median:  Median(values),
	}
}
