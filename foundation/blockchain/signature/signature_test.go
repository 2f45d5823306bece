package signature_test

import (
	"errors"
	"testing"

	"github.com/contentledger/notary/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	from     = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	value := struct {
		Signature string `json:"signature"`
	}{
		Signature: "4f1ab3",
	}

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	if addr := signature.Address(pk); addr != from {
		t.Fatalf("Should get the account for the private key, got %s", addr)
	}

	sig, err := signature.Sign(value, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	again, err := signature.Sign(value, pk)
	if err != nil || again != sig {
		t.Fatalf("Should get the same signature for the same data.")
	}

	addr, err := signature.FromAddress(value, sig)
	if err != nil {
		t.Fatalf("Should be able to generate from address: %s", err)
	}

	if from != addr {
		t.Logf("got: %s", addr)
		t.Logf("exp: %s", from)
		t.Fatalf("Should get back the right address.")
	}

	if err := signature.Verify(value, sig, from); err != nil {
		t.Fatalf("Should be able to verify the signature: %s", err)
	}
}

func Test_Tampered(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign("4f1ab3", pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if err := signature.Verify("4f1ab4", sig, from); !errors.Is(err, signature.ErrInvalidSignature) {
		t.Fatalf("Should not verify a signature over different data, got %v", err)
	}

	other, _ := crypto.GenerateKey()
	if err := signature.Verify("4f1ab3", sig, signature.Address(other)); !errors.Is(err, signature.ErrInvalidSignature) {
		t.Fatalf("Should not verify a signature against another account, got %v", err)
	}

	if _, err := signature.FromAddress("4f1ab3", "0x1234"); !errors.Is(err, signature.ErrInvalidSignature) {
		t.Fatalf("Should not accept a short signature, got %v", err)
	}

	if err := signature.Verify("4f1ab3", sig, "bill"); !errors.Is(err, signature.ErrInvalidSignature) {
		t.Fatalf("Should not accept a malformed account, got %v", err)
	}
}
