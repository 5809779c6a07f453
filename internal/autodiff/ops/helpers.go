package ops

import (
	"fmt"

	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// reduceToShape sums a gradient over its leading rows when the input it
// belongs to was broadcast ([n] or [1, n] against [..., n]).
func reduceToShape(grad *tensor.Tensor, shape tensor.Shape) *tensor.Tensor {
	if grad.Shape().Equal(shape) {
		return grad
	}
	n := shape.Last()
	if shape.NumElements() != n || grad.Shape().Last() != n {
		panic(fmt.Sprintf("ops: cannot reduce gradient %v to shape %v", grad.Shape(), shape))
	}
	out := tensor.Zeros(shape)
	dst := out.Data()
	for i, v := range grad.Data() {
		dst[i%n] += v
	}
	return out
}
