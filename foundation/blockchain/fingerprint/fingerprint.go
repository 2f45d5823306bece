// Package fingerprint provides the content hashing support for the ledger.
// It turns content into hex digests under a selectable algorithm and reduces
// a set of digests into a single merkle root.
package fingerprint

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"strings"
	"time"

	"github.com/contentledger/notary/foundation/blockchain/merkle"
)

// ErrUnsupportedAlgorithm is returned when a digest algorithm is requested
// that the engine does not know about.
var ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

// Algorithm represents the name of a digest algorithm.
type Algorithm string

// Set of supported digest algorithms.
const (
	SHA256 Algorithm = "sha256"
	SHA1   Algorithm = "sha1"
	MD5    Algorithm = "md5"
)

// Default is the algorithm used when none is specified.
const Default = SHA256

// ParseAlgorithm validates the name of an algorithm. An empty name resolves
// to the default algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	if name == "" {
		return Default, nil
	}

	alg := Algorithm(strings.ToLower(name))
	if _, err := alg.hasher(); err != nil {
		return "", err
	}

	return alg, nil
}

// hasher returns the hash constructor for the algorithm.
func (alg Algorithm) hasher() (func() hash.Hash, error) {
	switch alg {
	case SHA256:
		return sha256.New, nil
	case SHA1:
		return sha1.New, nil
	case MD5:
		return md5.New, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(alg))
}

// =============================================================================

// Generate returns the hex encoded digest of the content using the specified
// algorithm.
func Generate(content []byte, alg Algorithm) (string, error) {
	newHash, err := alg.hasher()
	if err != nil {
		return "", err
	}

	h := newHash()
	h.Write(content)

	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyIntegrity recomputes the digest of the content and compares it to
// the claimed digest. An unsupported algorithm is reported as a mismatch.
func VerifyIntegrity(content []byte, claimed string, alg Algorithm) bool {
	digest, err := Generate(content, alg)
	if err != nil {
		return false
	}

	return digest == strings.ToLower(claimed)
}

// MerkleRoot reduces the ordered set of digests into a single root. An empty
// set produces an empty root and a single digest is its own root. When a
// level has an odd number of digests the last one is paired with itself, so
// a duplicated final leaf can't be told apart from two identical leaves.
func MerkleRoot(digests []string) string {
	return merkle.Root(digests)
}

// Hash returns the sha256 digest of the canonical JSON encoding of the value.
// Struct fields are encoded in declaration order and map keys are sorted.
func Hash(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("canonical encoding: %w", err)
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// =============================================================================

// Batch represents the fingerprints for a set of content.
type Batch struct {
	Digests    []string `json:"individual_hashes"`
	MerkleRoot string   `json:"merkle_root"`
	Size       int      `json:"batch_size"`
	TimeStamp  int64    `json:"timestamp"`
}

// GenerateBatch fingerprints every piece of content with the default
// algorithm and folds the digests into a merkle root.
func GenerateBatch(contents []string) Batch {
	digests := make([]string, len(contents))
	for i, content := range contents {

		// The default algorithm is always supported.
		digests[i], _ = Generate([]byte(content), Default)
	}

	return Batch{
		Digests:    digests,
		MerkleRoot: MerkleRoot(digests),
		Size:       len(contents),
		TimeStamp:  time.Now().UTC().Unix(),
	}
}
