// Package signature provides helper functions for the issuer signatures
// placed on certificates.
package signature

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidSignature is returned when a signature doesn't verify.
var ErrInvalidSignature = errors.New("invalid signature")

// ledgerID is an arbitrary number added to the recovery id. This will make
// it clear that the signature comes from this ledger. Ethereum and Bitcoin
// do this as well, but they use the value of 27.
const ledgerID = 29

// =============================================================================

// Sign uses the specified private key to sign the value. The signature is
// returned as a hex string in the [R|S|V] format.
func Sign(value any, privateKey *ecdsa.PrivateKey) (string, error) {
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Check the public key extracted from the data and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return "", ErrInvalidSignature
	}

	v, r, s := toSignatureValues(sig)

	return hexutil.Encode(toSignatureBytesWithLedgerID(v, r, s)), nil
}

// FromAddress extracts the address for the account that signed the value.
// The same exact value that was signed must be provided or a different
// address is returned.
func FromAddress(value any, sigStr string) (string, error) {
	v, r, s, err := toVRSFromHexSignature(sigStr)
	if err != nil {
		return "", err
	}

	if err := verifySignatureValues(v, r, s); err != nil {
		return "", err
	}

	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	publicKey, err := crypto.SigToPub(data, toSignatureBytes(v, r, s))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// Verify checks the signature over the value was produced by the account.
func Verify(value any, sigStr string, account string) error {
	if !common.IsHexAddress(account) {
		return fmt.Errorf("%w: account %q is not properly formatted", ErrInvalidSignature, account)
	}

	addr, err := FromAddress(value, sigStr)
	if err != nil {
		return err
	}

	if !strings.EqualFold(addr, account) {
		return fmt.Errorf("%w: signed by %s, not %s", ErrInvalidSignature, addr, account)
	}

	return nil
}

// Address returns the account address for the private key.
func Address(privateKey *ecdsa.PrivateKey) string {
	return crypto.PubkeyToAddress(privateKey.PublicKey).String()
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this value with the
// ledger stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	// Hash the data into a 32 byte array. This will provide a data length
	// consistency with all data.
	dataHash := crypto.Keccak256(v)

	// Signatures we produce are always unique to this ledger.
	stamp := []byte("\x19Content Ledger Signed Message:\n32")

	return crypto.Keccak256(stamp, dataHash), nil
}

// verifySignatureValues checks the recovery id is either 0 or 1 and the
// signature values are in range.
func verifySignatureValues(v, r, s *big.Int) error {
	if v.Uint64() < ledgerID {
		return fmt.Errorf("%w: invalid recovery id", ErrInvalidSignature)
	}

	uintV := v.Uint64() - ledgerID
	if uintV != 0 && uintV != 1 {
		return fmt.Errorf("%w: invalid recovery id", ErrInvalidSignature)
	}

	if !crypto.ValidateSignatureValues(byte(uintV), r, s, false) {
		return fmt.Errorf("%w: invalid signature values", ErrInvalidSignature)
	}

	return nil
}

// toVRSFromHexSignature converts a hex representation of the signature into
// its R, S and V parts.
func toVRSFromHexSignature(sigStr string) (v, r, s *big.Int, err error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	if len(sig) != crypto.SignatureLength {
		return nil, nil, nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, crypto.SignatureLength, len(sig))
	}

	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64]})

	return v, r, s, nil
}

// toSignatureValues converts the signature into the r, s, v values.
func toSignatureValues(sig []byte) (v, r, s *big.Int) {
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64] + ledgerID})

	return v, r, s
}

// toSignatureBytes converts the r, s, v values into a slice of bytes
// with the removal of the ledgerID.
func toSignatureBytes(v, r, s *big.Int) []byte {
	sig := make([]byte, crypto.SignatureLength)

	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	sig[64] = byte(v.Uint64() - ledgerID)

	return sig
}

// toSignatureBytesWithLedgerID converts the r, s, v values into a slice of
// bytes keeping the ledger id.
func toSignatureBytesWithLedgerID(v, r, s *big.Int) []byte {
	sig := toSignatureBytes(v, r, s)
	sig[64] = byte(v.Uint64())

	return sig
}
