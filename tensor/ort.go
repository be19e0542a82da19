package tensor

import (
	"fmt"
	"sort"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/screenager/constrain/kinderr"
)

// ORTTensor wraps an onnxruntime_go float32 tensor, the type
// internal/onnxhost's causal-LM session produces for its logits output.
// Logits are rank 2, [batch, vocab]; Unsqueeze and Squeeze can produce
// tensors of other ranks.
type ORTTensor struct {
	t *ort.Tensor[float32]
}

// NewORTTensor wraps an existing onnxruntime_go tensor.
func NewORTTensor(t *ort.Tensor[float32]) *ORTTensor {
	return &ORTTensor{t: t}
}

// Shape implements Tensor.
func (o *ORTTensor) Shape() []int {
	shape := o.t.GetShape()
	out := make([]int, len(shape))
	for i, d := range shape {
		out[i] = int(d)
	}
	return out
}

// ORTBackend adapts onnxruntime_go's *ort.Tensor[float32] to the capability
// interface, the same lifecycle the teacher's internal/embed/embedder.go
// uses for its hidden-state tensors: ort.NewShape + ort.NewTensor to build,
// GetData/GetShape to read, Destroy to free.
type ORTBackend struct{}

func (ORTBackend) Name() string { return "onnxruntime" }

func asORT(t Tensor) (*ORTTensor, error) {
	o, ok := t.(*ORTTensor)
	if !ok {
		return nil, kinderr.New(kinderr.BackendUnavailable, "", fmt.Sprintf("onnxruntime backend cannot operate on %T", t))
	}
	return o, nil
}

func (ORTBackend) Shape(t Tensor) []int { return t.Shape() }

func (ORTBackend) Unsqueeze(t Tensor, dim int) (Tensor, error) {
	o, err := asORT(t)
	if err != nil {
		return nil, err
	}
	if dim != 0 {
		return nil, kinderr.New(kinderr.ShapeMismatch, "", "onnxruntime backend only supports unsqueeze at dim 0")
	}
	data := o.t.GetData()
	shape := ort.NewShape(append([]int64{1}, o.t.GetShape()...)...)
	nt, err := ort.NewTensor(shape, data)
	if err != nil {
		return nil, kinderr.Wrap(kinderr.ShapeMismatch, "", "could not unsqueeze onnxruntime tensor", err)
	}
	return &ORTTensor{t: nt}, nil
}

func (ORTBackend) Squeeze(t Tensor, dim int) (Tensor, error) {
	o, err := asORT(t)
	if err != nil {
		return nil, err
	}
	shape := o.t.GetShape()
	if dim != 0 || len(shape) == 0 || shape[0] != 1 {
		return nil, kinderr.New(kinderr.ShapeMismatch, "", "onnxruntime backend can only squeeze a singleton leading dim")
	}
	nt, err := ort.NewTensor(ort.NewShape(shape[1:]...), o.t.GetData())
	if err != nil {
		return nil, kinderr.Wrap(kinderr.ShapeMismatch, "", "could not squeeze onnxruntime tensor", err)
	}
	return &ORTTensor{t: nt}, nil
}

func (ORTBackend) ToFloat2D(t Tensor) ([][]float64, error) {
	o, err := asORT(t)
	if err != nil {
		return nil, err
	}
	shape := o.t.GetShape()
	if len(shape) != 2 {
		return nil, kinderr.New(kinderr.ShapeMismatch, "", "ToFloat2D requires a rank-2 tensor")
	}
	rows, cols := int(shape[0]), int(shape[1])
	data := o.t.GetData()
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			out[i][j] = float64(data[i*cols+j])
		}
	}
	return out, nil
}

func (ORTBackend) ToInt2D(t Tensor) ([][]int64, error) {
	f, err := ORTBackend{}.ToFloat2D(t)
	if err != nil {
		return nil, err
	}
	out := make([][]int64, len(f))
	for i, row := range f {
		out[i] = make([]int64, len(row))
		for j, v := range row {
			out[i][j] = int64(v)
		}
	}
	return out, nil
}

func (ORTBackend) ToScalar(t Tensor) (float64, error) {
	o, err := asORT(t)
	if err != nil {
		return 0, err
	}
	data := o.t.GetData()
	if len(data) != 1 {
		return 0, kinderr.New(kinderr.ShapeMismatch, "", "ToScalar requires a single-element tensor")
	}
	return float64(data[0]), nil
}

func (ORTBackend) FullLike(t Tensor, value float64) (Tensor, error) {
	o, err := asORT(t)
	if err != nil {
		return nil, err
	}
	shape := o.t.GetShape()
	data := make([]float32, len(o.t.GetData()))
	for i := range data {
		data[i] = float32(value)
	}
	nt, err := ort.NewTensor(ort.NewShape(shape...), data)
	if err != nil {
		return nil, kinderr.Wrap(kinderr.ShapeMismatch, "", "could not build onnxruntime tensor", err)
	}
	return &ORTTensor{t: nt}, nil
}

func (ORTBackend) FromFloat2D(rows [][]float64) (Tensor, error) {
	if len(rows) == 0 {
		return nil, kinderr.New(kinderr.ShapeMismatch, "", "FromFloat2D requires at least one row")
	}
	cols := len(rows[0])
	data := make([]float32, 0, len(rows)*cols)
	for _, row := range rows {
		if len(row) != cols {
			return nil, kinderr.New(kinderr.ShapeMismatch, "", "FromFloat2D requires uniform row width")
		}
		for _, v := range row {
			data = append(data, float32(v))
		}
	}
	nt, err := ort.NewTensor(ort.NewShape(int64(len(rows)), int64(cols)), data)
	if err != nil {
		return nil, kinderr.Wrap(kinderr.ShapeMismatch, "", "could not build onnxruntime tensor", err)
	}
	return &ORTTensor{t: nt}, nil
}

func (ORTBackend) Concat(tensors []Tensor, dim int) (Tensor, error) {
	if dim != 0 {
		return nil, kinderr.New(kinderr.ShapeMismatch, "", "onnxruntime backend only supports concat along dim 0")
	}
	var data []float32
	cols := -1
	for _, t := range tensors {
		o, err := asORT(t)
		if err != nil {
			return nil, err
		}
		shape := o.t.GetShape()
		if len(shape) != 2 {
			return nil, kinderr.New(kinderr.ShapeMismatch, "", "concat requires rank-2 tensors")
		}
		if cols == -1 {
			cols = int(shape[1])
		} else if cols != int(shape[1]) {
			return nil, kinderr.New(kinderr.ShapeMismatch, "", "concat requires matching column counts")
		}
		data = append(data, o.t.GetData()...)
	}
	rows := len(data) / cols
	nt, err := ort.NewTensor(ort.NewShape(int64(rows), int64(cols)), data)
	if err != nil {
		return nil, kinderr.Wrap(kinderr.ShapeMismatch, "", "could not build concatenated onnxruntime tensor", err)
	}
	return &ORTTensor{t: nt}, nil
}

func (ORTBackend) BooleanOnesLike(t Tensor) (Tensor, error) {
	return ORTBackend{}.FullLike(t, 1)
}

func (ORTBackend) ApplyMask(logitsTensor, mask Tensor) (Tensor, error) {
	l, err := asORT(logitsTensor)
	if err != nil {
		return nil, err
	}
	m, err := asORT(mask)
	if err != nil {
		return nil, err
	}
	ld, md := l.t.GetData(), m.t.GetData()
	if len(ld) != len(md) {
		return nil, kinderr.New(kinderr.ShapeMismatch, "", "logits/mask element count mismatch")
	}
	out := make([]float32, len(ld))
	for i := range ld {
		if md[i] != 0 {
			out[i] = NegInf
		} else {
			out[i] = ld[i]
		}
	}
	nt, err := ort.NewTensor(ort.NewShape(l.t.GetShape()...), out)
	if err != nil {
		return nil, kinderr.Wrap(kinderr.ShapeMismatch, "", "could not build masked onnxruntime tensor", err)
	}
	return &ORTTensor{t: nt}, nil
}

func (ORTBackend) ArgsortDesc(row []float64) []int {
	idx := make([]int, len(row))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return row[idx[i]] > row[idx[j]] })
	return idx
}

func (ORTBackend) DeviceOf(Tensor) string { return "cpu" }

func (ORTBackend) ToDevice(t Tensor, device string) (Tensor, error) {
	if device != "cpu" {
		return nil, kinderr.New(kinderr.BackendUnavailable, device, "onnxruntime backend in this build only runs on cpu")
	}
	return t, nil
}

func init() {
	Register(ORTBackend{})
}
