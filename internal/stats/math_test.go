package stats

import (
	"testing"
)

func TestMedian_Ints(t *testing.T) {
	tests := []struct {
		name     string
		values   []int
		expected float64
	}{
		{"Empty", []int{}, 0},
		{"SingleItem", []int{5}, 5},
		{"OddCount", []int{1, 3, 2, 4, 5}, 3},
		{"EvenCount", []int{1, 2, 3, 4}, 2.5},
		{"Unsorted", []int{10, 2, 8, 4, 6}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.values); got != tt.expected {
				t.Errorf("Median() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMedian_Floats(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"Empty", nil, 0},
		{"SingleItem", []float64{5.5}, 5.5},
		{"OddCount", []float64{1.1, 3.3, 2.2, 4.4, 5.5}, 3.3},
		{"EvenCount", []float64{1.5, 2.5, 3.5, 4.5}, 3},
		{"Unsorted", []float64{10.5, 2.5, 8.5, 4.5, 6.5}, 6.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.values); got != tt.expected {
				t.Errorf("Median() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMedian_DoesNotMutateInput(t *testing.T) {
	values := []int{3, 1, 2}
	_ = Median(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("Median mutated its input: %v", values)
	}
}

func TestMedian_WithinRange(t *testing.T) {
	sets := [][]int{
		{7},
		{1, 100},
		{5, 5, 5, 5},
		{9, 1, 4, 4, 12, 0},
		{-3, 8, 2},
	}

	for _, set := range sets {
		lo, hi := set[0], set[0]
		for _, v := range set {
			lo = min(lo, v)
			hi = max(hi, v)
		}
		m := Median(set)
		if m < float64(lo) || m > float64(hi) {
			t.Errorf("Median(%v) = %v, outside [%d, %d]", set, m, lo, hi)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]int{1, 2, 3, 4})
	if s.Sum != 10 {
		t.Errorf("Sum = %v, want 10", s.Sum)
	}
	if s.Average != 2.5 {
		t.Errorf("Average = %v, want 2.5", s.Average)
	}
	if s.Median != 2.5 {
		t.Errorf("Median = %v, want 2.5", s.Median)
	}
	if s.Count != 4 {
		t.Errorf("Count = %d, want 4", s.Count)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize([]float64{})
	if s != (Summary{}) {
		t.Errorf("Summarize(empty) = %+v, want zero value", s)
	}
}
