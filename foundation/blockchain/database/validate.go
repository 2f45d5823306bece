package database

import (
	"fmt"
)

// ValidationResult is the outcome of validating a chain of blocks.
type ValidationResult struct {
	Valid      bool    `json:"valid"`
	Error      string  `json:"error,omitempty"`
	BlockIndex *uint64 `json:"block_index,omitempty"`
}

// Err converts an invalid result into an error that wraps ErrInvalidChain.
func (vr ValidationResult) Err() error {
	if vr.Valid {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrInvalidChain, vr.Error)
}

// ValidateChain walks the blocks in order and reports the first block that
// breaks the chain rules. The blocks are not modified.
func ValidateChain(blocks []Block, difficulty uint16) ValidationResult {
	if len(blocks) == 0 {
		return ValidationResult{Error: "no genesis block"}
	}

	if err := blocks[0].ValidateGenesis(); err != nil {
		return invalidAt(0, err)
	}

	for i := 1; i < len(blocks); i++ {
		if err := blocks[i].ValidateBlock(blocks[i-1], difficulty); err != nil {
			return invalidAt(uint64(i), err)
		}
	}

	return ValidationResult{Valid: true}
}

func invalidAt(index uint64, err error) ValidationResult {
	return ValidationResult{
		Error:      fmt.Sprintf("block %d: %s", index, err),
		BlockIndex: &index,
	}
}
