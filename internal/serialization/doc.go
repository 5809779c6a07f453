// Package serialization saves and restores float32 state dictionaries in
// the SafeTensors format.
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON, tensor name -> {dtype, shape, data_offsets}]
//	  [Tensor data: raw little-endian bytes, sorted by tensor name]
//
// The writer records a SHA-256 checksum of the data section in the
// "__metadata__" block; the reader verifies it when present, and rejects
// overlapping or out-of-bounds tensor regions and unsafe tensor names.
//
// Example usage:
//
//	if err := serialization.WriteSafeTensors("model.safetensors", model.StateDict(), nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	stateDict, metadata, err := serialization.ReadSafeTensors("model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	model.LoadStateDict(stateDict)
package serialization
