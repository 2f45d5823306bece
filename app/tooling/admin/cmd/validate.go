package cmd

import (
	"github.com/contentledger/notary/foundation/blockchain/database"
	"github.com/contentledger/notary/foundation/blockchain/database/storage/disk"
	"github.com/contentledger/notary/foundation/blockchain/genesis"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var (
		dbPath      string
		genesisPath string
	)

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a chain stored on disk without starting a node",
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := genesis.Load(genesisPath)
			if err != nil {
				return err
			}

			storage, err := disk.New(dbPath)
			if err != nil {
				return err
			}
			defer storage.Close()

			blocks, err := database.ReadAll(storage)
			if err != nil {
				return err
			}

			vr := database.ValidateChain(blocks, gen.Difficulty)

			result := struct {
				database.ValidationResult
				ChainLength int `json:"chain_length"`
			}{
				ValidationResult: vr,
				ChainLength:      len(blocks),
			}

			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}

			return vr.Err()
		},
	}

	validateCmd.Flags().StringVarP(&dbPath, "db", "d", "zblock/blocks", "Directory holding the block files.")
	validateCmd.Flags().StringVarP(&genesisPath, "genesis", "g", "zblock/genesis.yaml", "Path to the genesis file.")

	return validateCmd
}
