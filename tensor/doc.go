// Copyright 2025 The patchwork Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense float32 tensors patchwork computes with.
//
// # Layout
//
// Tensors are row-major. Images are NHWC ([batch, height, width, channels])
// and convolution kernels are [kernel_h, kernel_w, in_channels, out_channels].
//
// # Basic Usage
//
//	import (
//	    "github.com/patchwork-ml/patchwork/backend/cpu"
//	    "github.com/patchwork-ml/patchwork/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Ones(tensor.Shape{2, 3})
//	    y := backend.MulScalar(x, 2)
//	    fmt.Println(y.Data())
//	}
package tensor
