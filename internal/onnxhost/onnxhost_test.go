package onnxhost

import "testing"

// TestArgmax checks the pure helper in isolation; Generate/runStep require a
// live ONNX session and model file and are exercised only as an integration
// path via cmd/constrain generate.
func TestArgmax(t *testing.T) {
	cases := []struct {
		row  []float32
		want int
	}{
		{[]float32{0, 0, 0}, 0},
		{[]float32{1, 5, 2}, 1},
		{[]float32{-1, -5, -2}, 0},
		{[]float32{3, 3, 9}, 2},
	}
	for _, c := range cases {
		if got := argmax(c.row); got != c.want {
			t.Errorf("argmax(%v) = %d, want %d", c.row, got, c.want)
		}
	}
}
