package cpu

import (
	"fmt"

	"github.com/patchwork-ml/patchwork/internal/parallel"
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// MaxPool2D performs 2D max pooling on NHWC input.
//
// Input shape:  [batch, height, width, channels]
// Output shape: [batch, out_height, out_width, channels]
//
// Where:
//
//	out_height = (height - kernelSize) / stride + 1
//	out_width = (width - kernelSize) / stride + 1
func (cpu *CPUBackend) MaxPool2D(input *tensor.Tensor, kernelSize, stride int) *tensor.Tensor {
	n, h, w, c, hOut, wOut := poolGeometry(input.Shape(), kernelSize, stride)
	out := tensor.Zeros(tensor.Shape{n, hOut, wOut, c})
	src, dst := input.Data(), out.Data()

	parallel.For(n, func(b int) {
		for oh := 0; oh < hOut; oh++ {
			for ow := 0; ow < wOut; ow++ {
				outOff := ((b*hOut+oh)*wOut + ow) * c
				for ch := 0; ch < c; ch++ {
					idx := argmaxWindow(src, b, oh, ow, ch, h, w, c, kernelSize, stride)
					dst[outOff+ch] = src[idx]
				}
			}
		}
	}, cpu.par)
	return out
}

// MaxPool2DBackward routes each output gradient to the input element that
// won the max in its window. Ties go to the first element in scan order.
func (cpu *CPUBackend) MaxPool2DBackward(input, grad *tensor.Tensor, kernelSize, stride int) *tensor.Tensor {
	n, h, w, c, hOut, wOut := poolGeometry(input.Shape(), kernelSize, stride)
	checkGradShape("maxpool2d", grad.Shape(), tensor.Shape{n, hOut, wOut, c})

	out := tensor.Zeros(input.Shape())
	src, gd, dst := input.Data(), grad.Data(), out.Data()

	parallel.For(n, func(b int) {
		for oh := 0; oh < hOut; oh++ {
			for ow := 0; ow < wOut; ow++ {
				outOff := ((b*hOut+oh)*wOut + ow) * c
				for ch := 0; ch < c; ch++ {
					idx := argmaxWindow(src, b, oh, ow, ch, h, w, c, kernelSize, stride)
					dst[idx] += gd[outOff+ch]
				}
			}
		}
	}, cpu.par)
	return out
}

func poolGeometry(shape tensor.Shape, kernelSize, stride int) (n, h, w, c, hOut, wOut int) {
	if len(shape) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,H,W,C], got %dD", len(shape)))
	}
	if kernelSize <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid stride %d", stride))
	}
	n, h, w, c = shape[0], shape[1], shape[2], shape[3]
	if kernelSize > h || kernelSize > w {
		panic(fmt.Sprintf("maxpool2d: kernel size %d too large for input %dx%d", kernelSize, h, w))
	}
	hOut = (h-kernelSize)/stride + 1
	wOut = (w-kernelSize)/stride + 1
	return n, h, w, c, hOut, wOut
}

func argmaxWindow(src []float32, b, oh, ow, ch, h, w, c, kernelSize, stride int) int {
	best := -1
	for i := 0; i < kernelSize; i++ {
		ih := oh*stride + i
		for j := 0; j < kernelSize; j++ {
			iw := ow*stride + j
			idx := ((b*h+ih)*w+iw)*c + ch
			if best < 0 || src[idx] > src[best] {
				best = idx
			}
		}
	}
	return best
}
