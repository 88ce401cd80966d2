package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ardanlabs/petition/foundation/blockchain/canonical"
	"github.com/ardanlabs/petition/foundation/blockchain/signature"
)

// Set of errors returned when a block doesn't fit on its parent.
var (
	ErrInvalidPrevHash = errors.New("invalid previous hash")
	ErrInvalidHash     = errors.New("invalid hash")
	ErrInvalidIndex    = errors.New("invalid index")
)

// =============================================================================

// Timestamp is the creation time of a block in seconds since the epoch. It is
// always written with a fraction so the hashed form never changes between
// writers.
type Timestamp float64

// Now returns the current time with microsecond precision.
func Now() Timestamp {
	return Timestamp(float64(time.Now().UnixMicro()) / 1e6)
}

// MarshalJSON implements the json.Marshaler interface.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	f := float64(ts)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("timestamp %v is not a finite number", f)
	}

	return []byte(canonical.Float(f)), nil
}

// =============================================================================

// Block represents one immutable entry in the ledger.
type Block struct {
	Index     uint64    `json:"index"`            // Position in the chain, genesis is 0.
	Timestamp Timestamp `json:"timestamp"`        // Advisory creation time, not enforced to be monotonic.
	TxType    TxType    `json:"transaction_type"` // Tag selecting the payload variant.
	TxData    TxData    `json:"transaction_data"` // Payload, see transaction.go.
	PrevHash  string    `json:"previous_hash"`    // Hash of the preceding block, "0" for genesis.
	Hash      string    `json:"hash"`             // Hash over all the other fields.

	stored *storedBlock
}

// storedBlock keeps a block exactly as it was read from storage. As long as
// the decoded fields are untouched, the stored bytes are what gets hashed and
// written back, so fields the typed payload doesn't model survive.
type storedBlock struct {
	content blockContent
	hash    string
	data    json.RawMessage
}

// blockContent is every field of a block except the hash. This is the value
// that gets hashed.
type blockContent struct {
	Index     uint64    `json:"index"`
	Timestamp Timestamp `json:"timestamp"`
	TxType    TxType    `json:"transaction_type"`
	TxData    TxData    `json:"transaction_data"`
	PrevHash  string    `json:"previous_hash"`
}

// NewGenesis constructs the first block of a chain.
func NewGenesis(ts Timestamp) Block {
	b := Block{
		Index:     0,
		Timestamp: ts,
		TxType:    TxTypeGenesis,
		TxData:    GenesisTx{},
		PrevHash:  signature.ZeroHash,
	}
	b.Hash = b.CalculateHash()

	return b
}

// NewBlock constructs the block that follows the previous block. The past
// block is not touched.
func NewBlock(prevBlock Block, data TxData, ts Timestamp) Block {
	b := Block{
		Index:     prevBlock.Index + 1,
		Timestamp: ts,
		TxType:    data.Type(),
		TxData:    data,
		PrevHash:  prevBlock.Hash,
	}
	b.Hash = b.CalculateHash()

	return b
}

// CalculateHash returns the hash of the block computed over every field
// except the hash itself.
func (b Block) CalculateHash() string {
	if b.unchanged() {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(b.stored.data, &fields); err == nil {
			delete(fields, "hash")
			return signature.Hash(fields)
		}
	}

	return signature.Hash(b.content())
}

// ValidateBlock checks the block fits on top of the previous block.
func (b Block) ValidateBlock(prevBlock Block) error {
	if b.PrevHash != prevBlock.Hash {
		return fmt.Errorf("block %d: %w", b.Index, ErrInvalidPrevHash)
	}

	if b.Hash != b.CalculateHash() {
		return fmt.Errorf("block %d: %w", b.Index, ErrInvalidHash)
	}

	if b.Index != prevBlock.Index+1 {
		return fmt.Errorf("block %d: %w: expected %d", b.Index, ErrInvalidIndex, prevBlock.Index+1)
	}

	return nil
}

// MarshalJSON implements the json.Marshaler interface. A block read from
// storage and left untouched is written back byte for byte.
func (b Block) MarshalJSON() ([]byte, error) {
	if b.unchanged() && b.Hash == b.stored.hash {
		return b.stored.data, nil
	}

	type plain Block
	return json.Marshal(plain(b))
}

// Creator returns the username that authored the block, the petition creator
// or the signer. The genesis block has no author.
func (b Block) Creator() string {
	switch tx := b.TxData.(type) {
	case CreatePetitionTx:
		return tx.Creator
	case SignPetitionTx:
		return tx.SignerUsername
	}

	return ""
}

// UnmarshalJSON implements the json.Unmarshaler interface. The payload is
// decoded into the variant named by the transaction type and the original
// bytes are kept.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw struct {
		Index     uint64          `json:"index"`
		Timestamp Timestamp       `json:"timestamp"`
		TxType    TxType          `json:"transaction_type"`
		TxData    json.RawMessage `json:"transaction_data"`
		PrevHash  string          `json:"previous_hash"`
		Hash      string          `json:"hash"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	txData, err := decodeTxData(raw.TxType, raw.TxData)
	if err != nil {
		return fmt.Errorf("block %d: %w", raw.Index, err)
	}

	*b = Block{
		Index:     raw.Index,
		Timestamp: raw.Timestamp,
		TxType:    raw.TxType,
		TxData:    txData,
		PrevHash:  raw.PrevHash,
		Hash:      raw.Hash,
	}
	b.stored = &storedBlock{
		content: b.content(),
		hash:    raw.Hash,
		data:    append(json.RawMessage(nil), data...),
	}

	return nil
}

// =============================================================================

func (b Block) content() blockContent {
	content := blockContent{
		Index:     b.Index,
		Timestamp: b.Timestamp,
		TxType:    b.TxType,
		TxData:    b.TxData,
		PrevHash:  b.PrevHash,
	}

	if content.TxData == nil {
		content.TxData = GenesisTx{}
	}

	return content
}

// unchanged reports whether the block still holds the content it was read
// from storage with.
func (b Block) unchanged() bool {
	return b.stored != nil && b.content() == b.stored.content
}
