package tensor

import (
	"testing"

	ort "github.com/yalue/onnxruntime_go"
)

// TestORTBackendApplyMask exercises ORTBackend/ORTTensor the same way
// internal/onnxhost's masking path does: wrap a real onnxruntime tensor,
// build a mask through the Backend interface, and apply it. Skips if the
// onnxruntime shared library isn't available in this environment, the same
// guard the teacher's internal/embed/embedder_test.go uses for any test
// touching a live ONNX session.
func TestORTBackendApplyMask(t *testing.T) {
	if err := ort.InitializeEnvironment(); err != nil {
		t.Skipf("skipping: onnxruntime environment unavailable: %v", err)
	}

	raw, err := ort.NewTensor(ort.NewShape(1, 3), []float32{1, 2, 3})
	if err != nil {
		t.Fatalf("ort.NewTensor: %v", err)
	}
	defer raw.Destroy()
	logits := NewORTTensor(raw)

	b := ORTBackend{}
	mask, err := b.FromFloat2D([][]float64{{0, 1, 0}})
	if err != nil {
		t.Fatalf("FromFloat2D: %v", err)
	}
	out, err := b.ApplyMask(logits, mask)
	if err != nil {
		t.Fatalf("ApplyMask: %v", err)
	}
	row, err := b.ToFloat2D(out)
	if err != nil {
		t.Fatalf("ToFloat2D: %v", err)
	}
	if row[0][0] != 1 || row[0][2] != 3 {
		t.Errorf("expected unmasked positions preserved, got %v", row[0])
	}
	if row[0][1] != float64(NegInf) {
		t.Errorf("expected masked position to be NegInf, got %v", row[0][1])
	}
}

// TestLookupORTBackend confirms ORTBackend registers itself under a stable
// name, the same registry path a caller selects a backend through by string
// (e.g. from a CLI flag), without needing a live onnxruntime environment.
func TestLookupORTBackend(t *testing.T) {
	b, err := Lookup("onnxruntime")
	if err != nil {
		t.Fatalf("Lookup(onnxruntime): %v", err)
	}
	if b.Name() != "onnxruntime" {
		t.Errorf("got backend named %q, want onnxruntime", b.Name())
	}
}
