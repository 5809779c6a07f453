package model

import (
	"fmt"
	"strconv"

	"github.com/patchwork-ml/patchwork/internal/serialization"
)

// Metadata keys written next to the weights.
const (
	metaHeight   = "input_height"
	metaWidth    = "input_width"
	metaChannels = "channels"
	metaHidden   = "hidden_dim"
	metaOutput   = "output_dim"
)

// Metadata describes the architecture stored with saved weights.
func (m *EmbeddingModel) Metadata() map[string]string {
	return map[string]string{
		metaHeight:   strconv.Itoa(m.shape[0]),
		metaWidth:    strconv.Itoa(m.shape[1]),
		metaChannels: strconv.Itoa(m.channels),
		metaHidden:   strconv.Itoa(m.HiddenDim()),
		metaOutput:   strconv.Itoa(m.OutputDim()),
	}
}

// Save writes the model weights to a SafeTensors file.
func (m *EmbeddingModel) Save(path string) error {
	return serialization.WriteSafeTensors(path, m.StateDict(), m.Metadata())
}

// Load restores weights saved by Save. The stored architecture must match.
func (m *EmbeddingModel) Load(path string) error {
	stateDict, meta, err := serialization.ReadSafeTensors(path)
	if err != nil {
		return err
	}
	for k, want := range m.Metadata() {
		if got, ok := meta[k]; ok && got != want {
			return fmt.Errorf("weights in %s have %s=%s, model has %s", path, k, got, want)
		}
	}
	return m.LoadStateDict(stateDict)
}
