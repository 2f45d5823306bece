package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/contentledger/notary/foundation/blockchain/fingerprint"
	"github.com/spf13/cobra"
)

func newHashCmd() *cobra.Command {
	var (
		algorithm string
		file      string
		verify    string
	)

	hashCmd := &cobra.Command{
		Use:   "hash [content]",
		Short: "Fingerprint content given as an argument or read from a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var content []byte
			switch {
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				content = data

			case len(args) == 1:
				content = []byte(args[0])

			default:
				return errors.New("content or --file is required")
			}

			alg, err := fingerprint.ParseAlgorithm(algorithm)
			if err != nil {
				return err
			}

			hash, err := fingerprint.Generate(content, alg)
			if err != nil {
				return err
			}

			if verify != "" {
				if !fingerprint.VerifyIntegrity(content, verify, alg) {
					return fmt.Errorf("content does not match %s, calculated %s", verify, hash)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "content matches %s\n", verify)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	hashCmd.Flags().StringVarP(&algorithm, "algorithm", "a", string(fingerprint.Default), "Digest algorithm: sha256, sha1 or md5.")
	hashCmd.Flags().StringVarP(&file, "file", "f", "", "Read the content from this file.")
	hashCmd.Flags().StringVar(&verify, "verify", "", "Check the content against this fingerprint instead of printing it.")

	return hashCmd
}
