// Package validate audits a chain. Chain checks the hash linkage of every
// block and Signatures checks that every signature verifies against the
// petition text and the signer's registered key.
package validate

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/petition/foundation/blockchain/database"
	"github.com/ardanlabs/petition/foundation/blockchain/petition"
	"github.com/ardanlabs/petition/foundation/blockchain/signature"
)

// Set of reasons a signature block can fail verification.
var (
	ErrIncomplete       = errors.New("incomplete transaction")
	ErrPetitionNotFound = errors.New("petition not found")
	ErrKeyNotFound      = errors.New("public key not found")
	ErrSignatureInvalid = errors.New("signature invalid")
)

// KeyLookup resolves the registered public key PEM for a username.
type KeyLookup interface {
	Get(username string) (string, bool)
}

// Failure names a block that failed validation and why.
type Failure struct {
	Index  uint64 `json:"index"`
	Reason string `json:"reason"`
}

// Report is the outcome of a validation pass.
type Report struct {
	OK       bool      `json:"ok"`
	Detail   string    `json:"detail"`
	Valid    int       `json:"valid"`
	Total    int       `json:"total"`
	Failures []Failure `json:"failures,omitempty"`
}

// =============================================================================

// Chain walks the chain from block 1 and stops at the first block whose
// previous hash, recomputed hash or index does not match. A chain holding only the
// genesis block is valid.
func Chain(chain []database.Block) Report {
	for i := 1; i < len(chain); i++ {
		err := chain[i].ValidateBlock(chain[i-1])
		switch {
		case errors.Is(err, database.ErrInvalidPrevHash):
			return chainFailure(i, "invalid previous hash")
		case errors.Is(err, database.ErrInvalidHash):
			return chainFailure(i, "invalid hash")
		case errors.Is(err, database.ErrInvalidIndex):
			return chainFailure(i, "invalid index")
		}
	}

	return Report{
		OK:     true,
		Detail: fmt.Sprintf("blockchain is valid: %d blocks", len(chain)),
		Valid:  len(chain),
		Total:  len(chain),
	}
}

// Signatures verifies every SIGN_PETITION block in the chain. The report is
// OK only when every signature verifies, which includes a chain with none.
func Signatures(chain []database.Block, keys KeyLookup) Report {
	var r Report

	for _, block := range chain {
		if block.TxType != database.TxTypeSignPetition {
			continue
		}

		r.Total++
		if err := Signature(chain, block, keys); err != nil {
			r.Failures = append(r.Failures, Failure{Index: block.Index, Reason: err.Error()})
			continue
		}
		r.Valid++
	}

	r.OK = r.Valid == r.Total
	r.Detail = fmt.Sprintf("%d/%d signatures valid", r.Valid, r.Total)

	return r
}

// Signature verifies a single SIGN_PETITION block against the petition text
// found in the chain and the signer's key found in the registry.
func Signature(chain []database.Block, block database.Block, keys KeyLookup) error {
	tx, ok := block.TxData.(database.SignPetitionTx)
	if !ok || !tx.Complete() {
		return fmt.Errorf("block %d: %w", block.Index, ErrIncomplete)
	}

	text, exists := petition.Text(chain, tx.PetitionID)
	if !exists {
		return fmt.Errorf("block %d: petition %q: %w", block.Index, tx.PetitionID, ErrPetitionNotFound)
	}

	pem, exists := keys.Get(tx.SignerUsername)
	if !exists {
		return fmt.Errorf("block %d: user %q: %w", block.Index, tx.SignerUsername, ErrKeyNotFound)
	}

	if !signature.Verify(signature.Message(text, tx.SignerUsername), tx.Signature, pem) {
		return fmt.Errorf("block %d: user %q: %w", block.Index, tx.SignerUsername, ErrSignatureInvalid)
	}

	return nil
}

// =============================================================================

func chainFailure(index int, reason string) Report {
	return Report{
		Detail:   fmt.Sprintf("block %d has %s", index, reason),
		Failures: []Failure{{Index: uint64(index), Reason: reason}},
	}
}
