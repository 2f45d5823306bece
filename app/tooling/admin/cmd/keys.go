package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/contentledger/notary/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

func newKeygenCmd() *cobra.Command {
	var (
		keyPath string
		force   bool
	)

	keygenCmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the issuer key used to counter-sign certificates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(keyPath); err == nil && !force {
				return fmt.Errorf("key %s already exists, use --force to replace it", keyPath)
			}

			if err := os.MkdirAll(filepath.Dir(keyPath), 0755); err != nil {
				return err
			}

			privateKey, err := crypto.GenerateKey()
			if err != nil {
				return err
			}

			if err := crypto.SaveECDSA(keyPath, privateKey); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "key: %s\naccount: %s\n", keyPath, signature.Address(privateKey))
			return nil
		},
	}

	keygenCmd.Flags().StringVarP(&keyPath, "key", "k", "zblock/issuer.ecdsa", "Path to write the private key.")
	keygenCmd.Flags().BoolVar(&force, "force", false, "Replace an existing key.")

	return keygenCmd
}

func newAccountCmd() *cobra.Command {
	var keyPath string

	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Print the issuer account for a private key",
		RunE: func(cmd *cobra.Command, args []string) error {
			privateKey, err := crypto.LoadECDSA(keyPath)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), signature.Address(privateKey))
			return nil
		},
	}

	accountCmd.Flags().StringVarP(&keyPath, "key", "k", "zblock/issuer.ecdsa", "Path to the private key.")

	return accountCmd
}
