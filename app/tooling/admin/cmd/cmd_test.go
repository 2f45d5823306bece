package cmd_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/contentledger/notary/app/tooling/admin/cmd"
	"github.com/contentledger/notary/foundation/blockchain/database/storage/disk"
	"github.com/contentledger/notary/foundation/blockchain/genesis"
	"github.com/contentledger/notary/foundation/blockchain/proof"
	"github.com/contentledger/notary/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestHash(t *testing.T) {
	t.Log("Given the need to fingerprint content from the command line.")
	{
		t.Logf("\tTest 0:\tWhen hashing hello.")
		{
			out, err := run("hash", "hello")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to hash: %v", failed, err)
			}

			if strings.TrimSpace(out) != "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824" {
				t.Fatalf("\t%s\tTest 0:\tShould print the sha256 fingerprint, got %q.", failed, out)
			}
			t.Logf("\t%s\tTest 0:\tShould print the sha256 fingerprint.", success)

			out, err = run("hash", "hello", "-a", "md5")
			if err != nil || strings.TrimSpace(out) != "5d41402abc4b2a76b9719d911017c592" {
				t.Fatalf("\t%s\tTest 0:\tShould print the md5 fingerprint, got %q %v.", failed, out, err)
			}
			t.Logf("\t%s\tTest 0:\tShould print the md5 fingerprint.", success)

			if _, err := run("hash", "hello", "--verify", "5d41402abc4b2a76b9719d911017c592"); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould fail to verify a fingerprint of another algorithm.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould fail to verify a fingerprint of another algorithm.", success)

			if _, err := run("hash", "hello", "-a", "sha512"); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject an unsupported algorithm.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject an unsupported algorithm.", success)
		}
	}
}

func TestKeys(t *testing.T) {
	t.Log("Given the need to manage the issuer key.")
	{
		t.Logf("\tTest 0:\tWhen generating a key and reading its account.")
		{
			keyPath := filepath.Join(t.TempDir(), "keys", "issuer.ecdsa")

			out, err := run("keygen", "-k", keyPath)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate a key: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to generate a key.", success)

			account, err := run("account", "-k", keyPath)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to read the account: %v", failed, err)
			}

			if !strings.Contains(out, strings.TrimSpace(account)) {
				t.Fatalf("\t%s\tTest 0:\tShould print the same account, got %q and %q.", failed, out, account)
			}
			t.Logf("\t%s\tTest 0:\tShould print the same account.", success)

			if _, err := run("keygen", "-k", keyPath); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould not replace a key without --force.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not replace a key without --force.", success)
		}
	}
}

func TestValidateAndCertificate(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "blocks")
	genesisPath := filepath.Join(dir, "genesis.yaml")

	if err := os.WriteFile(genesisPath, []byte("difficulty: 1\n"), 0600); err != nil {
		t.Fatalf("Should be able to write the genesis file: %s", err)
	}

	cert := sealChain(t, dbPath, genesisPath)

	t.Log("Given the need to check a chain and a certificate offline.")
	{
		t.Logf("\tTest 0:\tWhen validating the chain on disk.")
		{
			out, err := run("validate", "-d", dbPath, "-g", genesisPath)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould validate the chain: %v", failed, err)
			}

			var result struct {
				Valid       bool `json:"valid"`
				ChainLength int  `json:"chain_length"`
			}
			if err := json.Unmarshal([]byte(out), &result); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould print the result as JSON: %v", failed, err)
			}

			if !result.Valid || result.ChainLength != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould report a valid chain of 2 blocks, got %+v.", failed, result)
			}
			t.Logf("\t%s\tTest 0:\tShould report a valid chain of 2 blocks.", success)
		}

		t.Logf("\tTest 1:\tWhen verifying a saved certificate.")
		{
			certPath := filepath.Join(dir, "cert.json")
			writeJSON(t, certPath, map[string]any{"certificate": cert})

			out, err := run("certificate", "verify", certPath)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould verify the certificate: %v", failed, err)
			}

			if !strings.Contains(out, cert.CertificateID) {
				t.Fatalf("\t%s\tTest 1:\tShould name the certificate, got %q.", failed, out)
			}
			t.Logf("\t%s\tTest 1:\tShould verify the certificate.", success)

			forged := cert
			forged.IssuedAt = "2001-01-01T00:00:00Z"
			writeJSON(t, certPath, forged)

			if _, err := run("certificate", "verify", certPath); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould reject a forged certificate.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould reject a forged certificate.", success)
		}

		t.Logf("\tTest 2:\tWhen a block file was tampered with.")
		{
			blockPath := filepath.Join(dbPath, "1.json")

			data, err := os.ReadFile(blockPath)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to read block 1: %v", failed, err)
			}

			data = bytes.Replace(data, []byte(`"aaa"`), []byte(`"zzz"`), 1)
			if err := os.WriteFile(blockPath, data, 0600); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to write block 1: %v", failed, err)
			}

			if _, err := run("validate", "-d", dbPath, "-g", genesisPath); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould report the tampered chain.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould report the tampered chain.", success)
		}
	}
}

// =============================================================================

func run(args ...string) (string, error) {
	var out bytes.Buffer

	root := cmd.NewRootCmd("test")
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()

	return out.String(), err
}

func sealChain(t *testing.T, dbPath string, genesisPath string) proof.Certificate {
	gen, err := genesis.Load(genesisPath)
	if err != nil {
		t.Fatalf("Should be able to load the genesis file: %s", err)
	}

	storage, err := disk.New(dbPath)
	if err != nil {
		t.Fatalf("Should be able to open the storage: %s", err)
	}

	st, err := state.New(state.Config{
		BeneficiaryID: "admin-test",
		Genesis:       gen,
		Storage:       storage,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}
	defer st.Shutdown()

	if _, err := st.SubmitTransaction("aaa", "", "tester", map[string]any{"pages": 3}); err != nil {
		t.Fatalf("Should be able to submit: %s", err)
	}

	if _, err := st.SealNextBlock(context.Background(), ""); err != nil {
		t.Fatalf("Should be able to seal: %s", err)
	}

	cert, err := proof.NewBuilder(st, gen, nil).IssueCertificate("aaa")
	if err != nil {
		t.Fatalf("Should be able to issue a certificate: %s", err)
	}

	return cert
}

func writeJSON(t *testing.T, path string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Should be able to encode %s: %s", path, err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("Should be able to write %s: %s", path, err)
	}
}
