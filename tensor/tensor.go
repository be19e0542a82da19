// Package tensor is the capability table the logits processor uses instead
// of touching tensor internals directly (spec §4.H). One Backend
// implementation exists per supported runtime; the caller selects one at
// construction, and the processor's generic code is parameterised by it
// (spec §9: "replace [dynamic dispatch across tensor libraries] with a
// capability interface and an explicit backend enum").
package tensor

import (
	"math"

	"github.com/screenager/constrain/kinderr"
)

// NegInf is the value ApplyMask writes at forbidden positions: true negative
// infinity, which the float32/float64 storage of both backends here can
// represent.
var NegInf = float32(math.Inf(-1))

// Tensor is an opaque value produced and consumed by exactly one Backend.
// The logits processor never type-switches on concrete tensor types; it
// only ever calls back into the Backend that produced the value.
type Tensor interface {
	// Shape returns the tensor's dimensions, outermost first.
	Shape() []int
}

// Backend is the capability set a logits.Processor holds (spec §4.H):
// shape, unsqueeze, squeeze, to_list, to_scalar, full_like, concat,
// boolean_ones_like, apply_mask, argsort_desc, device_of, to_device.
// Implementations MUST be pure with respect to aliasing: mutating an input
// is allowed only along the documented output path of ApplyMask.
type Backend interface {
	// Name identifies the backend, e.g. "slice" or "onnxruntime".
	Name() string

	Shape(t Tensor) []int
	// Unsqueeze inserts a length-1 axis at dim.
	Unsqueeze(t Tensor, dim int) (Tensor, error)
	// Squeeze removes a length-1 axis at dim.
	Squeeze(t Tensor, dim int) (Tensor, error)

	// ToFloat2D materialises a rank-2 floating tensor as [][]float64.
	ToFloat2D(t Tensor) ([][]float64, error)
	// ToInt2D materialises a rank-2 integer tensor as [][]int64.
	ToInt2D(t Tensor) ([][]int64, error)
	// ToScalar extracts a single value from a rank-0 (or 1x1) tensor.
	ToScalar(t Tensor) (float64, error)

	// FullLike builds a tensor of t's shape filled with value.
	FullLike(t Tensor, value float64) (Tensor, error)
	// FromFloat2D materialises a host-side [][]float64 matrix as a backend
	// tensor. Not part of the spec's capability list verbatim, but every
	// concrete backend needs some way to hand the processor's host-built
	// mask matrix (spec §4.G: "build a boolean mask ... clear to false the
	// positions ... for each allowed id") back into the backend's own
	// tensor representation; FullLike alone can only produce a uniform
	// fill, not a per-element pattern.
	FromFloat2D(rows [][]float64) (Tensor, error)
	// Concat joins tensors along dim.
	Concat(tensors []Tensor, dim int) (Tensor, error)
	// BooleanOnesLike builds an all-true boolean mask of t's shape.
	BooleanOnesLike(t Tensor) (Tensor, error)
	// ApplyMask returns a copy of logitsTensor with every position where
	// mask is true replaced by NegInf.
	ApplyMask(logitsTensor, mask Tensor) (Tensor, error)
	// ArgsortDesc returns the indices of a 1D float row sorted by
	// descending value. No processor in package logits calls it.
	ArgsortDesc(row []float64) []int

	// DeviceOf reports the device a tensor lives on ("cpu", "cuda:0", ...).
	DeviceOf(t Tensor) string
	// ToDevice moves (or copies) t to the named device.
	ToDevice(t Tensor, device string) (Tensor, error)
}

// registry is the process-wide set of backends registered by name, so a
// caller can select one by string (e.g. from CLI flags or config) instead
// of importing every backend package directly.
var registry = map[string]Backend{}

// Register makes a Backend available by name. Intended to be called from a
// backend package's init(), the way database/sql drivers register
// themselves.
func Register(b Backend) {
	registry[b.Name()] = b
}

// Lookup returns the registered Backend for name, or BackendUnavailable if
// none was registered (spec §7).
func Lookup(name string) (Backend, error) {
	b, ok := registry[name]
	if !ok {
		return nil, kinderr.New(kinderr.BackendUnavailable, name, "no tensor backend registered under this name")
	}
	return b, nil
}
