package tensor

import (
	"fmt"
	"sort"

	"github.com/screenager/constrain/kinderr"
)

// SliceTensor is the default in-process Tensor: a dense rank-2 float64
// matrix. Callers working with [][]float32/[][]int64 (the spec's example
// dtypes) convert at the boundary; internally everything is float64 to
// keep one representation for both logits and boolean masks (0/1).
type SliceTensor struct {
	data [][]float64
}

// NewFloat2D wraps a [][]float32 logits matrix as a SliceTensor.
func NewFloat2D(rows [][]float32) *SliceTensor {
	data := make([][]float64, len(rows))
	for i, row := range rows {
		data[i] = make([]float64, len(row))
		for j, v := range row {
			data[i][j] = float64(v)
		}
	}
	return &SliceTensor{data: data}
}

// NewFloat1D wraps a single [V]float32 row, for callers passing unbatched
// logits (spec §4.G: "A 1D logits input is unsqueezed ...").
func NewFloat1D(row []float32) *SliceTensor {
	return NewFloat2D([][]float32{row})
}

// ToFloat32 renders the tensor back to [][]float32.
func (t *SliceTensor) ToFloat32() [][]float32 {
	out := make([][]float32, len(t.data))
	for i, row := range t.data {
		out[i] = make([]float32, len(row))
		for j, v := range row {
			out[i][j] = float32(v)
		}
	}
	return out
}

// Shape implements Tensor.
func (t *SliceTensor) Shape() []int {
	if len(t.data) == 0 {
		return []int{0}
	}
	return []int{len(t.data), len(t.data[0])}
}

// SliceBackend is the stdlib-only reference Backend (spec §9, "Domain
// Stack" justification: no tensor library appears anywhere in the example
// corpus, and the spec's own capability interface is designed to make a
// plain-slice reference implementation the natural default).
type SliceBackend struct{}

func (SliceBackend) Name() string { return "slice" }

func asSlice(t Tensor) (*SliceTensor, error) {
	s, ok := t.(*SliceTensor)
	if !ok {
		return nil, kinderr.New(kinderr.BackendUnavailable, "", fmt.Sprintf("slice backend cannot operate on %T", t))
	}
	return s, nil
}

func (SliceBackend) Shape(t Tensor) []int { return t.Shape() }

func (SliceBackend) Unsqueeze(t Tensor, dim int) (Tensor, error) {
	s, err := asSlice(t)
	if err != nil {
		return nil, err
	}
	if dim == 0 {
		return &SliceTensor{data: [][]float64{flatten(s.data)}}, nil
	}
	return nil, kinderr.New(kinderr.ShapeMismatch, "", "slice backend only supports unsqueeze at dim 0")
}

func flatten(rows [][]float64) []float64 {
	var out []float64
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

func (SliceBackend) Squeeze(t Tensor, dim int) (Tensor, error) {
	s, err := asSlice(t)
	if err != nil {
		return nil, err
	}
	if dim != 0 || len(s.data) != 1 {
		return nil, kinderr.New(kinderr.ShapeMismatch, "", "slice backend can only squeeze a singleton leading dim")
	}
	return &SliceTensor{data: [][]float64{s.data[0]}}, nil
}

func (SliceBackend) ToFloat2D(t Tensor) ([][]float64, error) {
	s, err := asSlice(t)
	if err != nil {
		return nil, err
	}
	return s.data, nil
}

func (SliceBackend) ToInt2D(t Tensor) ([][]int64, error) {
	s, err := asSlice(t)
	if err != nil {
		return nil, err
	}
	out := make([][]int64, len(s.data))
	for i, row := range s.data {
		out[i] = make([]int64, len(row))
		for j, v := range row {
			out[i][j] = int64(v)
		}
	}
	return out, nil
}

func (SliceBackend) ToScalar(t Tensor) (float64, error) {
	s, err := asSlice(t)
	if err != nil {
		return 0, err
	}
	if len(s.data) != 1 || len(s.data[0]) != 1 {
		return 0, kinderr.New(kinderr.ShapeMismatch, "", "ToScalar requires a 1x1 tensor")
	}
	return s.data[0][0], nil
}

func (SliceBackend) FullLike(t Tensor, value float64) (Tensor, error) {
	s, err := asSlice(t)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(s.data))
	for i, row := range s.data {
		out[i] = make([]float64, len(row))
		for j := range row {
			out[i][j] = value
		}
	}
	return &SliceTensor{data: out}, nil
}

func (SliceBackend) FromFloat2D(rows [][]float64) (Tensor, error) {
	data := make([][]float64, len(rows))
	for i, row := range rows {
		data[i] = append([]float64(nil), row...)
	}
	return &SliceTensor{data: data}, nil
}

func (SliceBackend) Concat(tensors []Tensor, dim int) (Tensor, error) {
	if dim != 0 {
		return nil, kinderr.New(kinderr.ShapeMismatch, "", "slice backend only supports concat along dim 0")
	}
	var rows [][]float64
	for _, t := range tensors {
		s, err := asSlice(t)
		if err != nil {
			return nil, err
		}
		rows = append(rows, s.data...)
	}
	return &SliceTensor{data: rows}, nil
}

func (SliceBackend) BooleanOnesLike(t Tensor) (Tensor, error) {
	return SliceBackend{}.FullLike(t, 1)
}

// ApplyMask returns a new tensor: positions where mask is non-zero are set
// to NegInf, everything else is copied unchanged bit-for-bit (spec §8
// testable property: "all non-masked positions equal the input values
// bit-for-bit").
func (SliceBackend) ApplyMask(logitsTensor, mask Tensor) (Tensor, error) {
	l, err := asSlice(logitsTensor)
	if err != nil {
		return nil, err
	}
	m, err := asSlice(mask)
	if err != nil {
		return nil, err
	}
	if len(l.data) != len(m.data) {
		return nil, kinderr.New(kinderr.ShapeMismatch, "",
			fmt.Sprintf("logits batch %d != mask batch %d", len(l.data), len(m.data)))
	}
	out := make([][]float64, len(l.data))
	for i := range l.data {
		if len(l.data[i]) != len(m.data[i]) {
			return nil, kinderr.New(kinderr.ShapeMismatch, "", fmt.Sprintf("row %d: logits width %d != mask width %d", i, len(l.data[i]), len(m.data[i])))
		}
		out[i] = make([]float64, len(l.data[i]))
		for j := range l.data[i] {
			if m.data[i][j] != 0 {
				out[i][j] = float64(NegInf)
			} else {
				out[i][j] = l.data[i][j]
			}
		}
	}
	return &SliceTensor{data: out}, nil
}

func (SliceBackend) ArgsortDesc(row []float64) []int {
	idx := make([]int, len(row))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return row[idx[i]] > row[idx[j]] })
	return idx
}

func (SliceBackend) DeviceOf(Tensor) string { return "cpu" }

func (SliceBackend) ToDevice(t Tensor, device string) (Tensor, error) {
	if device != "cpu" {
		return nil, kinderr.New(kinderr.BackendUnavailable, device, "slice backend only supports the cpu device")
	}
	return t, nil
}

func init() {
	Register(SliceBackend{})
}
