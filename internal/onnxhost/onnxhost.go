// Package onnxhost is a demo causal-LM decoding loop driving a
// logits.Processor end to end, proving the public API is sufficient to
// steer unconstrained third-party inference code. Session lifecycle is
// grounded on the teacher's internal/embed/embedder.go (SetSharedLibraryPath,
// InitializeEnvironment, NewSessionOptions, NewDynamicAdvancedSession,
// NewTensor/Destroy).
package onnxhost

import (
	"fmt"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/screenager/constrain/internal/tokenizer"
	"github.com/screenager/constrain/logits"
	"github.com/screenager/constrain/tensor"
)

// Host wraps a single-input/single-output causal-LM ONNX session: input
// "input_ids" of shape [1, T], output "logits" of shape [1, T, V]. Only the
// last position's row is consumed per step, matching a standard
// incremental-decode contract without KV-cache reuse (out of scope for a
// demo host).
type Host struct {
	session *ort.DynamicAdvancedSession
	tok     *tokenizer.Tokenizer
	backend tensor.Backend
}

// Options configures New.
type Options struct {
	OrtLibPath string // shared library path; "" uses the system default
	NumThreads int    // 0 = min(4, NumCPU)
}

// New loads an ONNX causal-LM session from modelPath and pairs it with tok.
func New(modelPath string, tok *tokenizer.Tokenizer, opts Options) (*Host, error) {
	if opts.OrtLibPath != "" {
		ort.SetSharedLibraryPath(opts.OrtLibPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("init ort: %w", err)
	}

	numThreads := opts.NumThreads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
		if numThreads > 4 {
			numThreads = 4
		}
	}

	sessOpts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer sessOpts.Destroy()
	if err := sessOpts.SetIntraOpNumThreads(numThreads); err != nil {
		return nil, fmt.Errorf("set intra threads: %w", err)
	}
	if err := sessOpts.SetInterOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("set inter threads: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, []string{"input_ids"}, []string{"logits"}, sessOpts)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &Host{session: session, tok: tok, backend: tensor.ORTBackend{}}, nil
}

// Close releases the ONNX session.
func (h *Host) Close() { h.session.Destroy() }

// Generate runs a greedy decode loop over prompt, masking every step's
// logits through proc, stopping at maxNewTokens or when proc's Guide
// reaches COMPLETED (signalled by the model emitting the forced eos id).
func (h *Host) Generate(prompt string, proc logits.Processor, maxNewTokens int) ([]uint32, error) {
	ids := h.tok.Encode(prompt, true)
	generated := make([]int64, len(ids))
	for i, id := range ids {
		generated[i] = int64(id)
	}

	for step := 0; step < maxNewTokens; step++ {
		rowTensor, err := h.runStep(generated)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", step, err)
		}
		masked, err := proc.Process([][]int64{generated}, tensor.NewORTTensor(rowTensor))
		if err != nil {
			return nil, fmt.Errorf("mask step %d: %w", step, err)
		}
		maskedRows, err := h.backend.ToFloat2D(masked)
		if err != nil {
			return nil, fmt.Errorf("decode masked row %d: %w", step, err)
		}
		row := make([]float32, len(maskedRows[0]))
		for i, v := range maskedRows[0] {
			row[i] = float32(v)
		}
		next := argmax(row)
		generated = append(generated, int64(next))
		if uint32(next) == h.tok.EOSID() {
			break
		}
	}

	out := make([]uint32, len(generated))
	for i, id := range generated {
		out[i] = uint32(id)
	}
	return out, nil
}

func (h *Host) runStep(ids []int64) (*ort.Tensor[float32], error) {
	shape := ort.NewShape(1, int64(len(ids)))
	input, err := ort.NewTensor(shape, append([]int64(nil), ids...))
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := h.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	defer func() {
		if outputs[0] != nil {
			outputs[0].Destroy()
		}
	}()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type (want *Tensor[float32])")
	}
	data := out.GetData()
	shapeOut := out.GetShape()
	if len(shapeOut) != 3 {
		return nil, fmt.Errorf("expected rank-3 logits [1,T,V], got shape %v", shapeOut)
	}
	T, V := int(shapeOut[1]), int(shapeOut[2])
	last := make([]float32, V)
	copy(last, data[(T-1)*V:T*V])

	row, err := ort.NewTensor(ort.NewShape(1, int64(V)), last)
	if err != nil {
		return nil, fmt.Errorf("row tensor: %w", err)
	}
	return row, nil
}

func argmax(row []float32) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}
