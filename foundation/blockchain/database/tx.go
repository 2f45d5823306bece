package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/contentledger/notary/foundation/blockchain/fingerprint"
	"github.com/google/uuid"
)

// Set of transaction status values.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
)

// DefaultDataType is recorded when a submitter doesn't name the kind of
// content being recorded.
const DefaultDataType = "knowledge"

// Values recorded on the bookkeeping entry appended to every sealed block.
const (
	RewardContentHash = "reward"
	RewardDataType    = "reward"
)

// =============================================================================

// Tx is a verification transaction binding a content fingerprint to the
// submitter. Fields are declared in json key order so the encoding of a
// transaction is canonical.
type Tx struct {
	ContentHash string         `json:"content_hash"` // Fingerprint of the content being recorded.
	CreatedAt   int64          `json:"created_at"`   // Unix seconds the transaction was constructed.
	DataType    string         `json:"data_type"`    // Free form label for the kind of content.
	ID          string         `json:"id"`           // Unique id for the transaction.
	Metadata    map[string]any `json:"metadata"`     // Free form JSON object supplied by the submitter.
	Status      string         `json:"status"`       // Either pending or confirmed.
	Submitter   string         `json:"submitter"`    // Who is asserting the content existed.
}

// NewTx constructs a pending transaction for the specified content hash.
func NewTx(contentHash string, dataType string, submitter string, metadata map[string]any) (Tx, error) {
	if contentHash == "" {
		return Tx{}, errors.New("content hash is required")
	}

	if dataType == "" {
		dataType = DefaultDataType
	}

	// The metadata becomes part of the block hash. The transaction keeps its
	// own copy, reduced to the values the encoding preserves.
	metadata, err := normalizeMetadata(metadata)
	if err != nil {
		return Tx{}, fmt.Errorf("metadata can't be encoded: %w", err)
	}

	tx := Tx{
		ContentHash: contentHash,
		CreatedAt:   time.Now().UTC().Unix(),
		DataType:    dataType,
		ID:          uuid.NewString(),
		Metadata:    metadata,
		Status:      StatusPending,
		Submitter:   submitter,
	}

	return tx, nil
}

// NewRewardTx constructs the bookkeeping entry for the account that sealed
// a block.
func NewRewardTx(beneficiary string, reward uint64) Tx {
	return Tx{
		ContentHash: RewardContentHash,
		CreatedAt:   time.Now().UTC().Unix(),
		DataType:    RewardDataType,
		ID:          uuid.NewString(),
		Metadata:    map[string]any{"reward": reward},
		Status:      StatusConfirmed,
		Submitter:   beneficiary,
	}
}

// IsReward reports whether the transaction is a sealing reward entry.
func (tx Tx) IsReward() bool {
	return tx.ContentHash == RewardContentHash && tx.DataType == RewardDataType
}

// Hash implements the merkle Hashable interface and returns the digest of
// the canonical encoding of the transaction.
func (tx Tx) Hash() (string, error) {
	hash, err := fingerprint.Hash(tx)
	if err != nil {
		return "", fmt.Errorf("tx[%s]: %w", tx.ID, err)
	}

	return hash, nil
}

// Equals implements the merkle Hashable interface for providing an equality
// check between two transactions.
func (tx Tx) Equals(otherTx Tx) bool {
	return tx.ID == otherTx.ID && tx.ContentHash == otherTx.ContentHash
}

// String implements the Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%s", tx.ID, tx.ContentHash)
}

// Clone returns a copy of the transaction that shares no part of the
// metadata at any depth.
func (tx Tx) Clone() Tx {
	if tx.Metadata != nil {
		tx.Metadata = copyValue(tx.Metadata).(map[string]any)
	}
	return tx
}

// =============================================================================

// Digests returns the digest of every transaction in order.
func Digests(trans []Tx) ([]string, error) {
	digests := make([]string, len(trans))
	for i, tx := range trans {
		hash, err := tx.Hash()
		if err != nil {
			return nil, err
		}
		digests[i] = hash
	}

	return digests, nil
}

// TransRoot returns the merkle root of the transaction digests.
func TransRoot(trans []Tx) (string, error) {
	digests, err := Digests(trans)
	if err != nil {
		return "", err
	}

	return fingerprint.MerkleRoot(digests), nil
}

// CloneTrans returns a copy of the transactions that shares no metadata.
func CloneTrans(trans []Tx) []Tx {
	if trans == nil {
		return nil
	}

	out := make([]Tx, len(trans))
	for i, tx := range trans {
		out[i] = tx.Clone()
	}

	return out
}

// =============================================================================

// normalizeMetadata returns a copy of the metadata that went through the
// same encoding the transaction hash uses. Numbers are kept as written.
func normalizeMetadata(metadata map[string]any) (map[string]any, error) {
	if metadata == nil {
		return map[string]any{}, nil
	}

	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	out := map[string]any{}
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}

	return out, nil
}

// copyValue deep copies the JSON shaped values metadata holds. Anything
// else is immutable or was normalized away when the transaction was built.
func copyValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = copyValue(e)
		}
		return out

	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = copyValue(e)
		}
		return out
	}

	return v
}
