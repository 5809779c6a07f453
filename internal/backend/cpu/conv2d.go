package cpu

import (
	"fmt"

	"github.com/patchwork-ml/patchwork/internal/parallel"
	"github.com/patchwork-ml/patchwork/internal/tensor"
)

// convGeometry holds the dimensions shared by the forward and backward kernels.
type convGeometry struct {
	n, h, w, cin    int
	kh, kw, cout    int
	hOut, wOut      int
	stride, padding int
}

// newConvGeometry validates NHWC input and [K_h, K_w, C_in, C_out] kernel shapes.
//
// Output dimensions:
//
//	out_h = (H + 2*padding - K_h) / stride + 1
//	out_w = (W + 2*padding - K_w) / stride + 1
func newConvGeometry(input, kernel tensor.Shape, stride, padding int) convGeometry {
	if len(input) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,H,W,C], got %dD", len(input)))
	}
	if len(kernel) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [K_h,K_w,C_in,C_out], got %dD", len(kernel)))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid stride=%d padding=%d", stride, padding))
	}
	g := convGeometry{
		n: input[0], h: input[1], w: input[2], cin: input[3],
		kh: kernel[0], kw: kernel[1], cout: kernel[3],
		stride: stride, padding: padding,
	}
	if kernel[2] != g.cin {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", g.cin, kernel[2]))
	}
	g.hOut = (g.h+2*padding-g.kh)/stride + 1
	g.wOut = (g.w+2*padding-g.kw)/stride + 1
	if g.hOut <= 0 || g.wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", g.hOut, g.wOut))
	}
	return g
}

// visit calls f for every (output position, kernel tap) pair that lands inside
// the input, passing the flat offsets of the input pixel, the output pixel and
// the kernel tap (all at channel 0).
func (g convGeometry) visit(b int, f func(inOff, outOff, kOff int)) {
	for oh := 0; oh < g.hOut; oh++ {
		for ow := 0; ow < g.wOut; ow++ {
			outOff := ((b*g.hOut+oh)*g.wOut + ow) * g.cout
			for i := 0; i < g.kh; i++ {
				ih := oh*g.stride + i - g.padding
				if ih < 0 || ih >= g.h {
					continue
				}
				for j := 0; j < g.kw; j++ {
					iw := ow*g.stride + j - g.padding
					if iw < 0 || iw >= g.w {
						continue
					}
					inOff := ((b*g.h+ih)*g.w + iw) * g.cin
					kOff := (i*g.kw + j) * g.cin * g.cout
					f(inOff, outOff, kOff)
				}
			}
		}
	}
}

// Conv2D performs a direct 2D convolution on NHWC input.
//
// Input shape:  [batch, height, width, in_channels]
// Kernel shape: [kernel_h, kernel_w, in_channels, out_channels]
// Output shape: [batch, out_h, out_w, out_channels]
//
// Batch elements are processed in parallel.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.Tensor, stride, padding int) *tensor.Tensor {
	g := newConvGeometry(input.Shape(), kernel.Shape(), stride, padding)
	out := tensor.Zeros(tensor.Shape{g.n, g.hOut, g.wOut, g.cout})
	in, k, dst := input.Data(), kernel.Data(), out.Data()

	parallel.For(g.n, func(b int) {
		g.visit(b, func(inOff, outOff, kOff int) {
			o := dst[outOff : outOff+g.cout]
			for ci := 0; ci < g.cin; ci++ {
				x := in[inOff+ci]
				if x == 0 {
					continue
				}
				row := k[kOff+ci*g.cout : kOff+(ci+1)*g.cout]
				for co, kv := range row {
					o[co] += x * kv
				}
			}
		})
	}, cpu.par)
	return out
}

// Conv2DInputBackward computes dL/dinput given dL/doutput.
// This is the transposed convolution of grad with the kernel.
func (cpu *CPUBackend) Conv2DInputBackward(input, kernel, grad *tensor.Tensor, stride, padding int) *tensor.Tensor {
	g := newConvGeometry(input.Shape(), kernel.Shape(), stride, padding)
	checkGradShape("conv2d", grad.Shape(), tensor.Shape{g.n, g.hOut, g.wOut, g.cout})

	out := tensor.Zeros(input.Shape())
	k, gd, dst := kernel.Data(), grad.Data(), out.Data()

	parallel.For(g.n, func(b int) {
		g.visit(b, func(inOff, outOff, kOff int) {
			gRow := gd[outOff : outOff+g.cout]
			for ci := 0; ci < g.cin; ci++ {
				row := k[kOff+ci*g.cout : kOff+(ci+1)*g.cout]
				var sum float32
				for co, kv := range row {
					sum += gRow[co] * kv
				}
				dst[inOff+ci] += sum
			}
		})
	}, cpu.par)
	return out
}

// Conv2DKernelBackward computes dL/dkernel given dL/doutput.
// This is the correlation of the input with grad, summed over the batch.
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, grad *tensor.Tensor, stride, padding int) *tensor.Tensor {
	g := newConvGeometry(input.Shape(), kernel.Shape(), stride, padding)
	checkGradShape("conv2d", grad.Shape(), tensor.Shape{g.n, g.hOut, g.wOut, g.cout})

	// One partial kernel per batch element keeps workers write-disjoint.
	size := kernel.NumElements()
	partials := make([]float32, g.n*size)
	in, gd := input.Data(), grad.Data()

	parallel.For(g.n, func(b int) {
		part := partials[b*size : (b+1)*size]
		g.visit(b, func(inOff, outOff, kOff int) {
			gRow := gd[outOff : outOff+g.cout]
			for ci := 0; ci < g.cin; ci++ {
				x := in[inOff+ci]
				if x == 0 {
					continue
				}
				row := part[kOff+ci*g.cout : kOff+(ci+1)*g.cout]
				for co, gv := range gRow {
					row[co] += x * gv
				}
			}
		})
	}, cpu.par)

	out := tensor.Zeros(kernel.Shape())
	dst := out.Data()
	for b := 0; b < g.n; b++ {
		for i, v := range partials[b*size : (b+1)*size] {
			dst[i] += v
		}
	}
	return out
}

func checkGradShape(op string, got, want tensor.Shape) {
	if !got.Equal(want) {
		panic(fmt.Sprintf("%s backward: gradient shape %v, expected %v", op, got, want))
	}
}
