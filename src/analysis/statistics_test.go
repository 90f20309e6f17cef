package analysis

import (
	"math"
	"testing"
)

func TestMeanStd(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		mean float64
		std  float64
	}{
		{"empty", nil, 0, 0},
		{"single value", []float64{5}, 5, 0},
		{"uniform", []float64{2, 2, 2, 2}, 2, 0},
		{"symmetric", []float64{1, 3}, 2, 1},
		{"known population", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 5, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, std := MeanStd(tt.data)
			if math.Abs(mean-tt.mean) > 1e-12 {
				t.Errorf("mean = %v, want %v", mean, tt.mean)
			}
			if math.Abs(std-tt.std) > 1e-12 {
				t.Errorf("std = %v, want %v", std, tt.std)
			}
		})
	}
}

func TestSigmaNumber(t *testing.T) {
	// mean 2, std 1
	data := []float64{1, 3}

	tests := []struct {
		name  string
		value float64
		want  int
	}{
		{"at the mean", 2, 1},
		{"inside first band", 2.5, 1},
		{"second band", 3.5, 2},
		{"third band", 4.2, 3},
		{"band edge counts upward", 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SigmaNumber(data, tt.value); got != tt.want {
				t.Errorf("SigmaNumber(%v) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestSigmaNumber_ZeroDeviation(t *testing.T) {
	data := []float64{2, 2, 2}

	t.Run("value equal to the mean", func(t *testing.T) {
		if got := SigmaNumber(data, 2); got != 1 {
			t.Errorf("got %d, want 1", got)
		}
	})

	t.Run("any other value is maximally deviant", func(t *testing.T) {
		if got := SigmaNumber(data, 2.0001); got != math.MaxInt32 {
			t.Errorf("got %d, want MaxInt32", got)
		}
	})
}
