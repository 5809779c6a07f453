// Copyright 2025 The patchwork Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers patchwork models are assembled from.
//
// Every layer implements Module: Forward maps a tensor to a tensor,
// Parameters lists trainable weights, and StateDict/LoadStateDict move
// weights in and out by name.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	net := nn.NewSequential(
//	    nn.NewConv2D(3, 16, 3, 1, 1, true, backend),
//	    nn.NewReLU(backend),
//	    nn.NewMaxPool2D(2, 2, backend),
//	    nn.NewGlobalAvgPool2D(backend),
//	    nn.NewLinear(16, 8, backend),
//	)
//	out := net.Forward(images) // [N, 8]
package nn
