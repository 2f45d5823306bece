// Package cmd contains the admin commands.
package cmd

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

// NewRootCmd constructs the admin command with every subcommand attached.
func NewRootCmd(build string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "admin",
		Short:         "Administrative tasks for the content ledger",
		Version:       build,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newHashCmd(),
		newKeygenCmd(),
		newAccountCmd(),
		newValidateCmd(),
		newCertificateCmd(),
	)

	return rootCmd
}

// printJSON writes the value to the writer as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
