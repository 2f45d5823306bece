// Package genesis maintains access to the genesis file which holds the
// parameters the ledger is sealed under.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the chain parameters.
const (
	DefaultDifficulty         = 4
	DefaultMiningReward       = 1
	DefaultIssuer             = "Content Ledger Verification System"
	DefaultCertificateVersion = "1.0"
)

// maxDifficulty is the number of hex characters in a sha256 digest.
const maxDifficulty = 64

// Genesis represents the genesis file.
type Genesis struct {
	Date               time.Time `json:"date" yaml:"date"`
	ChainID            uint16    `json:"chain_id" yaml:"chain_id"`                       // The chain id represents an unique id for this running instance.
	Difficulty         uint16    `json:"difficulty" yaml:"difficulty"`                   // Number of leading 0's a block hash needs to be sealed.
	MiningReward       uint64    `json:"mining_reward" yaml:"mining_reward"`             // Bookkeeping reward recorded for sealing a block.
	Issuer             string    `json:"issuer" yaml:"issuer"`                           // Label placed on issued certificates.
	CertificateVersion string    `json:"certificate_version" yaml:"certificate_version"` // Version placed on issued certificates.
}

// Default returns the genesis values used when no file is provided.
func Default() Genesis {
	return Genesis{
		ChainID:            1,
		Difficulty:         DefaultDifficulty,
		MiningReward:       DefaultMiningReward,
		Issuer:             DefaultIssuer,
		CertificateVersion: DefaultCertificateVersion,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Files ending in .yaml or .yml are
// decoded as YAML, anything else as JSON. A missing file produces the default
// genesis values.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Genesis{}, err
	}

	genesis := Default()

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &genesis)
	default:
		err = json.Unmarshal(content, &genesis)
	}
	if err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis %s: %w", path, err)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the genesis values are usable.
func (g Genesis) Validate() error {
	if g.Difficulty > maxDifficulty {
		return fmt.Errorf("difficulty %d is larger than the hash length %d", g.Difficulty, maxDifficulty)
	}

	if g.Issuer == "" {
		return errors.New("issuer is required")
	}

	return nil
}
