// Package proof builds verification proofs and certificates for content
// recorded in the ledger, and verifies them without access to the ledger.
package proof

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/contentledger/notary/foundation/blockchain/database"
	"github.com/contentledger/notary/foundation/blockchain/fingerprint"
	"github.com/contentledger/notary/foundation/blockchain/genesis"
	"github.com/contentledger/notary/foundation/blockchain/merkle"
	"github.com/contentledger/notary/foundation/blockchain/signature"
	"github.com/google/uuid"
)

// Set of errors returned by verification.
var (
	ErrInvalidProof       = errors.New("invalid proof")
	ErrInvalidCertificate = errors.New("invalid certificate")
)

// Ledger represents the behavior required from the ledger to build proofs.
type Ledger interface {
	Locate(contentHash string) (database.Location, error)
	QueryBlock(num uint64) (database.Block, error)
	LatestBlock() (database.Block, error)
}

// =============================================================================
// Fields are declared in json key order so the encoding of every value in
// this package is canonical.

// Data is the part of a proof covered by the proof hash.
type Data struct {
	BlockHash    string `json:"block_hash"`
	BlockIndex   uint64 `json:"block_index"`
	ChainLength  uint64 `json:"chain_length"`
	ContentHash  string `json:"content_hash"`
	PreviousHash string `json:"previous_hash"`
	TimeStamp    int64  `json:"timestamp"`
}

// MerkleProof is the sibling path from a transaction digest to the merkle
// root of its block. Order 0 says the sibling is concatenated first, 1 says
// it comes second.
type MerkleProof struct {
	Leaf     string   `json:"leaf"`
	Order    []int64  `json:"order"`
	Siblings []string `json:"siblings"`
}

// Proof is evidence that a content hash is recorded in the ledger.
type Proof struct {
	MerkleProof      MerkleProof `json:"merkle_proof"`
	MerkleRoot       string      `json:"merkle_root"`
	ProofData        Data        `json:"proof_data"`
	ProofHash        string      `json:"proof_hash"`
	VerificationPath []string    `json:"verification_path"`
	Verified         bool        `json:"verified"`
}

// Certificate is a signed and timestamped wrapper around a proof.
type Certificate struct {
	CertificateID      string `json:"certificate_id"`
	CertificateVersion string `json:"certificate_version"`
	ContentHash        string `json:"content_hash"`
	IssuedAt           string `json:"issued_at"`
	Issuer             string `json:"issuer"`
	IssuerAccount      string `json:"issuer_account,omitempty"`
	IssuerSignature    string `json:"issuer_signature,omitempty"`
	Signature          string `json:"signature,omitempty"`
	VerificationProof  Proof  `json:"verification_proof"`
}

// Digest returns the digest of the certificate with the signature fields
// removed.
func (c Certificate) Digest() (string, error) {
	c.Signature = ""
	c.IssuerSignature = ""
	c.IssuerAccount = ""

	return fingerprint.Hash(c)
}

// =============================================================================

// Builder constructs proofs and certificates from the ledger.
type Builder struct {
	ledger    Ledger
	issuer    string
	version   string
	issuerKey *ecdsa.PrivateKey
}

// NewBuilder constructs a builder. The issuer key is optional, when provided
// certificates are also signed by the issuer account.
func NewBuilder(ledger Ledger, gen genesis.Genesis, issuerKey *ecdsa.PrivateKey) *Builder {
	return &Builder{
		ledger:    ledger,
		issuer:    gen.Issuer,
		version:   gen.CertificateVersion,
		issuerKey: issuerKey,
	}
}

// IssuerAccount returns the account signing certificates or an empty string
// when no issuer key is configured.
func (b *Builder) IssuerAccount() string {
	if b.issuerKey == nil {
		return ""
	}
	return signature.Address(b.issuerKey)
}

// BuildProof locates the content hash and constructs the proof that it is
// recorded in the ledger. The ledger's not found error is returned when the
// content hash was never sealed.
func (b *Builder) BuildProof(contentHash string) (Proof, error) {
	loc, err := b.ledger.Locate(contentHash)
	if err != nil {
		return Proof{}, err
	}

	block, err := b.ledger.QueryBlock(loc.BlockIndex)
	if err != nil {
		return Proof{}, fmt.Errorf("query block %d: %w", loc.BlockIndex, err)
	}

	latest, err := b.ledger.LatestBlock()
	if err != nil {
		return Proof{}, fmt.Errorf("query latest block: %w", err)
	}

	data := Data{
		BlockHash:    loc.BlockHash,
		BlockIndex:   loc.BlockIndex,
		ChainLength:  latest.Number + 1,
		ContentHash:  contentHash,
		PreviousHash: block.PrevBlockHash,
		TimeStamp:    loc.TimeStamp,
	}

	mp, err := merkleProof(block.Trans, loc.Transaction)
	if err != nil {
		return Proof{}, err
	}

	digests, err := database.Digests(block.Trans)
	if err != nil {
		return Proof{}, fmt.Errorf("block %d digests: %w", block.Number, err)
	}

	proofHash, err := fingerprint.Hash(data)
	if err != nil {
		return Proof{}, fmt.Errorf("proof hash: %w", err)
	}

	proof := Proof{
		MerkleProof:      mp,
		MerkleRoot:       fingerprint.MerkleRoot(digests),
		ProofData:        data,
		ProofHash:        proofHash,
		VerificationPath: digests,
		Verified:         true,
	}

	return proof, nil
}

// IssueCertificate builds a fresh proof for the content hash and wraps it
// in a signed certificate.
func (b *Builder) IssueCertificate(contentHash string) (Certificate, error) {
	proof, err := b.BuildProof(contentHash)
	if err != nil {
		return Certificate{}, err
	}

	cert := Certificate{
		CertificateID:      uuid.NewString(),
		CertificateVersion: b.version,
		ContentHash:        contentHash,
		IssuedAt:           time.Now().UTC().Format(time.RFC3339),
		Issuer:             b.issuer,
		VerificationProof:  proof,
	}

	cert.Signature, err = cert.Digest()
	if err != nil {
		return Certificate{}, fmt.Errorf("certificate signature: %w", err)
	}

	if b.issuerKey != nil {
		sig, err := signature.Sign(cert.Signature, b.issuerKey)
		if err != nil {
			return Certificate{}, fmt.Errorf("issuer signature: %w", err)
		}

		cert.IssuerSignature = sig
		cert.IssuerAccount = signature.Address(b.issuerKey)
	}

	return cert, nil
}

// =============================================================================

// VerifyProof recomputes the proof hash and the merkle path of the proof.
func VerifyProof(p Proof) error {
	if !p.Verified {
		return fmt.Errorf("%w: not verified", ErrInvalidProof)
	}

	hash, err := fingerprint.Hash(p.ProofData)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidProof, err)
	}

	if hash != p.ProofHash {
		return fmt.Errorf("%w: proof hash mismatch, got %s, exp %s", ErrInvalidProof, p.ProofHash, hash)
	}

	if root := fingerprint.MerkleRoot(p.VerificationPath); root != p.MerkleRoot {
		return fmt.Errorf("%w: merkle root mismatch, got %s, exp %s", ErrInvalidProof, p.MerkleRoot, root)
	}

	if !slices.Contains(p.VerificationPath, p.MerkleProof.Leaf) {
		return fmt.Errorf("%w: leaf %s not in verification path", ErrInvalidProof, p.MerkleProof.Leaf)
	}

	if err := merkle.VerifyProof(p.MerkleProof.Leaf, p.MerkleProof.Siblings, p.MerkleProof.Order, p.MerkleRoot); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidProof, err)
	}

	return nil
}

// VerifyCertificate checks the certificate signature, the issuer signature
// when present, and the proof it wraps.
func VerifyCertificate(c Certificate) error {
	if c.ContentHash != c.VerificationProof.ProofData.ContentHash {
		return fmt.Errorf("%w: content hash doesn't match the proof", ErrInvalidCertificate)
	}

	digest, err := c.Digest()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCertificate, err)
	}

	if digest != c.Signature {
		return fmt.Errorf("%w: signature mismatch, got %s, exp %s", ErrInvalidCertificate, c.Signature, digest)
	}

	if c.IssuerSignature != "" || c.IssuerAccount != "" {
		if err := signature.Verify(c.Signature, c.IssuerSignature, c.IssuerAccount); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidCertificate, err)
		}
	}

	if err := VerifyProof(c.VerificationProof); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCertificate, err)
	}

	return nil
}

// =============================================================================

// merkleProof constructs the sibling path for the transaction.
func merkleProof(trans []database.Tx, tx database.Tx) (MerkleProof, error) {
	tree, err := merkle.NewTree(trans)
	if err != nil {
		return MerkleProof{}, fmt.Errorf("merkle tree: %w", err)
	}

	siblings, order, err := tree.Proof(tx)
	if err != nil {
		return MerkleProof{}, fmt.Errorf("merkle proof: %w", err)
	}

	leaf, err := tx.Hash()
	if err != nil {
		return MerkleProof{}, err
	}

	mp := MerkleProof{
		Leaf:     leaf,
		Order:    order,
		Siblings: siblings,
	}

	return mp, nil
}
