package train

import (
	"encoding/gob"
	"fmt"
	"os"

	torch "github.com/wangkuiyi/gotorch"

	"goresnet/models"
)

// SaveStateDict writes the model weights to path as a gob-encoded state
// dict. The model is moved to CPU first so the checkpoint loads on any
// device; callers that keep training move it back afterwards.
func SaveStateDict(model *models.ResNetModule, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}
	defer f.Close()

	model.To(torch.NewDevice("cpu"))
	if err := gob.NewEncoder(f).Encode(model.StateDict()); err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	return nil
}

// LoadStateDict restores weights saved by SaveStateDict into model.
func LoadStateDict(model *models.ResNetModule, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open checkpoint: %w", err)
	}
	defer f.Close()

	states := make(map[string]torch.Tensor)
	if err := gob.NewDecoder(f).Decode(&states); err != nil {
		return fmt.Errorf("decode checkpoint: %w", err)
	}
	if err := model.SetStateDict(states); err != nil {
		return fmt.Errorf("restore state dict: %w", err)
	}
	return nil
}
