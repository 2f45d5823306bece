package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/contentledger/notary/foundation/blockchain/proof"
	"github.com/spf13/cobra"
)

func newCertificateCmd() *cobra.Command {
	certificateCmd := &cobra.Command{
		Use:   "certificate",
		Short: "Work with issued certificates",
	}

	verifyCmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify a certificate saved as JSON without access to the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cert, err := readCertificate(args[0])
			if err != nil {
				return err
			}

			if err := proof.VerifyCertificate(cert); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "certificate %s is valid\n", cert.CertificateID)
			fmt.Fprintf(out, "content: %s\nblock: %d %s\nissued: %s by %s\n",
				cert.ContentHash,
				cert.VerificationProof.ProofData.BlockIndex,
				cert.VerificationProof.ProofData.BlockHash,
				cert.IssuedAt,
				cert.Issuer,
			)
			if cert.IssuerAccount != "" {
				fmt.Fprintf(out, "issuer account: %s\n", cert.IssuerAccount)
			}

			return nil
		},
	}

	certificateCmd.AddCommand(verifyCmd)

	return certificateCmd
}

// readCertificate reads a certificate file. Both the bare certificate and
// the response body of the certificate endpoint are accepted.
func readCertificate(path string) (proof.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return proof.Certificate{}, err
	}

	var doc struct {
		Certificate *proof.Certificate `json:"certificate"`
	}
	if err := decode(data, &doc); err == nil && doc.Certificate != nil {
		return *doc.Certificate, nil
	}

	var cert proof.Certificate
	if err := decode(data, &cert); err != nil {
		return proof.Certificate{}, fmt.Errorf("decoding certificate %s: %w", path, err)
	}

	return cert, nil
}

func decode(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(v)
}
