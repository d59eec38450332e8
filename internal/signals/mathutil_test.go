package signals

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5}, 5},
		{"several", []float64{1, 2, 3}, 2},
		{"mixed signs", []float64{-2, 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mean(tt.values); !almostEqual(got, tt.want) {
				t.Errorf("Mean(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestStdDev(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{4}, 0},
		{"constant", []float64{3, 3, 3}, 0},
		{"sample", []float64{1, 2, 3, 4}, math.Sqrt(5.0 / 3.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StdDev(tt.values); !almostEqual(got, tt.want) {
				t.Errorf("StdDev(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestRollingMean(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	got := RollingMean(values, 3)
	want := []float64{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("RollingMean length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("RollingMean[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if out := RollingMean(values, 6); out != nil {
		t.Errorf("RollingMean with short input = %v, want nil", out)
	}
	if out := RollingMean(values, 0); out != nil {
		t.Errorf("RollingMean with zero window = %v, want nil", out)
	}
}

func TestRollingStdDev(t *testing.T) {
	values := []float64{1, 2, 3, 4}

	got := RollingStdDev(values, 2)
	if len(got) != 3 {
		t.Fatalf("RollingStdDev length = %d, want 3", len(got))
	}
	for i, v := range got {
		if !almostEqual(v, math.Sqrt2/2) {
			t.Errorf("RollingStdDev[%d] = %v, want %v", i, v, math.Sqrt2/2)
		}
	}

	// Alignment with RollingMean matters for band arithmetic
	means := RollingMean(values, 2)
	if len(means) != len(got) {
		t.Errorf("alignment mismatch: means %d vs stddevs %d", len(means), len(got))
	}
}

func TestSlopeLeastSquares(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"too short", []float64{1}, 0},
		{"flat", []float64{5, 5, 5}, 0},
		{"unit ramp", []float64{1, 2, 3}, 1},
		{"steeper ramp", []float64{0, 2, 4, 6}, 2},
		{"descending", []float64{6, 4, 2, 0}, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SlopeLeastSquares(tt.values); !almostEqual(got, tt.want) {
				t.Errorf("SlopeLeastSquares(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestNormCDF(t *testing.T) {
	if got := NormCDF(0); !almostEqual(got, 0.5) {
		t.Errorf("NormCDF(0) = %v, want 0.5", got)
	}
	if got := NormCDF(1.959964); math.Abs(got-0.975) > 1e-6 {
		t.Errorf("NormCDF(1.959964) = %v, want ~0.975", got)
	}
	if got := NormCDF(0.7) + NormCDF(-0.7); !almostEqual(got, 1.0) {
		t.Errorf("NormCDF symmetry broken: %v", got)
	}
	if got := NormCDF(math.Inf(1)); got != 1.0 {
		t.Errorf("NormCDF(+Inf) = %v, want 1", got)
	}
	if got := NormCDF(math.Inf(-1)); got != 0.0 {
		t.Errorf("NormCDF(-Inf) = %v, want 0", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 10); got != 5 {
		t.Errorf("Clamp inside = %v, want 5", got)
	}
	if got := Clamp(-1, 0, 10); got != 0 {
		t.Errorf("Clamp below = %v, want 0", got)
	}
	if got := Clamp(11, 0, 10); got != 10 {
		t.Errorf("Clamp above = %v, want 10", got)
	}
}
