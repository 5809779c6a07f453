package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"os"
	"sort"

	"github.com/patchwork-ml/patchwork/internal/tensor"
)

const (
	metadataKey = "__metadata__"
	dtypeF32    = "F32"
)

// SafeTensorHeader represents a tensor in the SafeTensors header.
type SafeTensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// WriteSafeTensors writes tensors to a SafeTensors file.
//
// Tensors are written in alphabetical order by name. The file is written
// to a temporary sibling first and renamed into place.
func WriteSafeTensors(path string, stateDict map[string]*tensor.Tensor, metadata map[string]string) error {
	buf, err := EncodeSafeTensors(stateDict, metadata)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	//nolint:gosec // G306: model weights are not secret
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move weights into place: %w", err)
	}
	return nil
}

// EncodeSafeTensors serializes a state dictionary to SafeTensors bytes.
func EncodeSafeTensors(stateDict map[string]*tensor.Tensor, metadata map[string]string) ([]byte, error) {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		if err := ValidateTensorName(name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(names)+1)
	var data bytes.Buffer
	var offset int64
	for _, name := range names {
		t := stateDict[name]
		size := int64(t.NumElements() * 4)

		shape := make([]int64, len(t.Shape()))
		for i, dim := range t.Shape() {
			shape[i] = int64(dim)
		}
		header[name] = SafeTensorHeader{
			DType:       dtypeF32,
			Shape:       shape,
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size

		var word [4]byte
		for _, v := range t.Data() {
			binary.LittleEndian.PutUint32(word[:], math.Float32bits(v))
			data.Write(word[:])
		}
	}

	meta := make(map[string]string, len(metadata)+1)
	maps.Copy(meta, metadata)
	meta[checksumKey] = ComputeChecksum(data.Bytes())
	header[metadataKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal header: %w", err)
	}

	out := make([]byte, 8, 8+len(headerJSON)+data.Len())
	binary.LittleEndian.PutUint64(out, uint64(len(headerJSON)))
	out = append(out, headerJSON...)
	out = append(out, data.Bytes()...)
	return out, nil
}

// ReadSafeTensors reads a SafeTensors file written with F32 tensors.
// Returns the state dictionary and the file's metadata.
func ReadSafeTensors(path string) (map[string]*tensor.Tensor, map[string]string, error) {
	//nolint:gosec // G304: path is supplied by the caller on purpose
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	stateDict, metadata, err := DecodeSafeTensors(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return stateDict, metadata, nil
}

// DecodeSafeTensors parses SafeTensors bytes.
func DecodeSafeTensors(buf []byte) (map[string]*tensor.Tensor, map[string]string, error) {
	if len(buf) < 8 {
		return nil, nil, fmt.Errorf("file too short: %d bytes", len(buf))
	}
	headerSize := binary.LittleEndian.Uint64(buf[:8])
	if headerSize > MaxHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}
	if headerSize > uint64(len(buf)-8) {
		return nil, nil, fmt.Errorf("header size %d exceeds file size %d", headerSize, len(buf))
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(buf[8:8+headerSize], &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header: %w", err)
	}
	data := buf[8+headerSize:]

	var metadata map[string]string
	if m, ok := raw[metadataKey]; ok {
		if err := json.Unmarshal(m, &metadata); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
		delete(raw, metadataKey)
	}

	infos := make(map[string]SafeTensorHeader, len(raw))
	metas := make([]TensorMeta, 0, len(raw))
	for name, value := range raw {
		if err := ValidateTensorName(name); err != nil {
			return nil, nil, err
		}
		var info SafeTensorHeader
		if err := json.Unmarshal(value, &info); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal tensor %s: %w", name, err)
		}
		if info.DType != dtypeF32 {
			return nil, nil, fmt.Errorf("%w: tensor %s has dtype %s", ErrUnsupportedDType, name, info.DType)
		}
		infos[name] = info
		metas = append(metas, TensorMeta{
			Name:   name,
			Offset: info.DataOffsets[0],
			Size:   info.DataOffsets[1] - info.DataOffsets[0],
		})
	}
	if err := ValidateTensorOffsets(metas, int64(len(data))); err != nil {
		return nil, nil, err
	}

	if stored, ok := metadata[checksumKey]; ok {
		if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
			return nil, nil, err
		}
	}

	stateDict := make(map[string]*tensor.Tensor, len(infos))
	for name, info := range infos {
		shape := make(tensor.Shape, len(info.Shape))
		for i, dim := range info.Shape {
			shape[i] = int(dim)
		}
		region := data[info.DataOffsets[0]:info.DataOffsets[1]]
		if int64(shape.NumElements()*4) != int64(len(region)) {
			return nil, nil, &ValidationError{
				Type:    "size_mismatch",
				Tensor:  name,
				Details: fmt.Sprintf("shape %v needs %d bytes, region has %d", shape, shape.NumElements()*4, len(region)),
			}
		}
		values := make([]float32, shape.NumElements())
		for i := range values {
			values[i] = math.Float32frombits(binary.LittleEndian.Uint32(region[i*4:]))
		}
		stateDict[name] = tensor.New(values, shape)
	}
	return stateDict, metadata, nil
}
