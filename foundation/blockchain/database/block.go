package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/contentledger/notary/foundation/blockchain/fingerprint"
)

// ZeroHash is the previous block hash recorded by the genesis block.
const ZeroHash = "0"

// ErrInvalidChain is returned when a chain fails validation.
var ErrInvalidChain = errors.New("invalid chain")

// =============================================================================

// Block represents a group of transactions sealed together.
type Block struct {
	Number        uint64 `json:"number"`          // Position in the chain, genesis is 0.
	TimeStamp     int64  `json:"timestamp"`       // Unix seconds the block was constructed.
	Trans         []Tx   `json:"trans"`           // Transactions sealed in this block.
	PrevBlockHash string `json:"prev_block_hash"` // Hash of the previous block in the chain.
	Nonce         uint64 `json:"nonce"`           // Value identified to solve the hash solution.
	Hash          string `json:"hash"`            // Hash recorded when the block was sealed.
	TransRoot     string `json:"trans_root"`      // Merkle root of the transaction digests.
}

// NewGenesisBlock constructs the first block of the chain.
func NewGenesisBlock() Block {
	b := Block{
		Number:        0,
		TimeStamp:     time.Now().UTC().Unix(),
		Trans:         []Tx{},
		PrevBlockHash: ZeroHash,
		Nonce:         0,
	}
	b.TransRoot = fingerprint.MerkleRoot(nil)
	b.Hash = b.CalculateHash()

	return b
}

// POW constructs a new Block on top of the previous block and performs the
// work to find a nonce that solves the proof of work puzzle.
func POW(ctx context.Context, difficulty uint16, prevBlock Block, trans []Tx, evHandler func(v string, args ...any)) (Block, error) {
	root, err := TransRoot(trans)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		Number:        prevBlock.Number + 1,
		TimeStamp:     time.Now().UTC().Unix(),
		Trans:         CloneTrans(trans),
		PrevBlockHash: prevBlock.Hash,
		Nonce:         0, // Will be identified by the POW algorithm.
		TransRoot:     root,
	}

	if err := nb.performPOW(ctx, difficulty, evHandler); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of sealing to find a valid hash for the block.
// Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, difficulty uint16, ev func(v string, args ...any)) error {
	ev("database: PerformPOW: SEALING: started: blk[%d]", b.Number)
	defer ev("database: PerformPOW: SEALING: completed: blk[%d]", b.Number)

	for _, tx := range b.Trans {
		ev("database: PerformPOW: SEALING: tx[%s]", tx)
	}

	// Only the nonce changes between attempts.
	prefix, err := b.hashPrefix()
	if err != nil {
		return err
	}

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: PerformPOW: SEALING: attempts[%d]", attempts)
		}

		// Did we timeout trying to solve the problem.
		if ctx.Err() != nil {
			ev("database: PerformPOW: SEALING: CANCELLED: blk[%d]", b.Number)
			return ctx.Err()
		}

		hash := hashWithNonce(prefix, b.Nonce)
		if !isHashSolved(difficulty, hash) {
			b.Nonce++
			continue
		}

		b.Hash = hash

		ev("database: PerformPOW: SEALING: SOLVED: prevBlk[%s]: newBlk[%s]", b.PrevBlockHash, hash)
		ev("database: PerformPOW: SEALING: attempts[%d]", attempts)

		return nil
	}
}

// CalculateHash recomputes the hash of the block from its contents. The
// hash input is the canonical serialization
//
//	<number>|<timestamp>|<json(trans)>|<prev_block_hash>|<nonce>
//
// An empty string is returned if the transactions can't be encoded.
func (b Block) CalculateHash() string {
	prefix, err := b.hashPrefix()
	if err != nil {
		return ""
	}

	return hashWithNonce(prefix, b.Nonce)
}

// hashPrefix returns the part of the canonical serialization that comes
// before the nonce.
func (b Block) hashPrefix() ([]byte, error) {
	trans, err := json.Marshal(b.Trans)
	if err != nil {
		return nil, fmt.Errorf("blk[%d]: encoding transactions: %w", b.Number, err)
	}

	prefix := make([]byte, 0, len(trans)+128)
	prefix = strconv.AppendUint(prefix, b.Number, 10)
	prefix = append(prefix, '|')
	prefix = strconv.AppendInt(prefix, b.TimeStamp, 10)
	prefix = append(prefix, '|')
	prefix = append(prefix, trans...)
	prefix = append(prefix, '|')
	prefix = append(prefix, b.PrevBlockHash...)
	prefix = append(prefix, '|')

	return prefix, nil
}

// hashWithNonce completes the serialization with the nonce and hashes it.
func hashWithNonce(prefix []byte, nonce uint64) string {
	data := strconv.AppendUint(prefix[:len(prefix):len(prefix)], nonce, 10)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	b.Trans = CloneTrans(b.Trans)
	return b
}

// =============================================================================

// ValidateGenesis checks the block is a well formed genesis block.
func (b Block) ValidateGenesis() error {
	if b.Number != 0 {
		return fmt.Errorf("genesis block number is %d", b.Number)
	}

	if b.PrevBlockHash != ZeroHash {
		return fmt.Errorf("genesis previous hash is %q", b.PrevBlockHash)
	}

	if len(b.Trans) != 0 {
		return fmt.Errorf("genesis block holds %d transactions", len(b.Trans))
	}

	if hash := b.CalculateHash(); hash != b.Hash {
		return fmt.Errorf("invalid hash, got %s, exp %s", b.Hash, hash)
	}

	return nil
}

// ValidateBlock takes a block and validates it can follow the previous block
// in the chain. The checks are performed in a fixed order and the first
// violation is returned.
func (b Block) ValidateBlock(previousBlock Block, difficulty uint16) error {
	if hash := b.CalculateHash(); hash != b.Hash {
		return fmt.Errorf("invalid hash, got %s, exp %s", b.Hash, hash)
	}

	if b.PrevBlockHash != previousBlock.Hash {
		return fmt.Errorf("invalid previous hash, got %s, exp %s", b.PrevBlockHash, previousBlock.Hash)
	}

	if nextNumber := previousBlock.Number + 1; b.Number != nextNumber {
		return fmt.Errorf("this block is not the next number, got %d, exp %d", b.Number, nextNumber)
	}

	if !isHashSolved(difficulty, b.Hash) {
		return fmt.Errorf("block hash %s doesn't meet difficulty %d", b.Hash, difficulty)
	}

	root, err := TransRoot(b.Trans)
	if err != nil {
		return err
	}

	if b.TransRoot != root {
		return fmt.Errorf("merkle root does not match transactions, got %s, exp %s", b.TransRoot, root)
	}

	return nil
}

// isHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint16, hash string) bool {
	if len(hash) != sha256.Size*2 || int(difficulty) > len(hash) {
		return false
	}

	for i := range int(difficulty) {
		if hash[i] != '0' {
			return false
		}
	}

	return true
}
