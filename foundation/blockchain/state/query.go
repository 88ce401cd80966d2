package state

import (
	"fmt"

	"github.com/ardanlabs/petition/foundation/blockchain/database"
	"github.com/ardanlabs/petition/foundation/blockchain/petition"
	"github.com/ardanlabs/petition/foundation/blockchain/validate"
)

// Signer is a signature on a petition along with whether it verifies
// against the signer's registered key.
type Signer struct {
	petition.Signature
	Verified bool   `json:"verified"`
	Reason   string `json:"reason,omitempty"`
}

// ValidationResult is the outcome of both validation passes.
type ValidationResult struct {
	Chain      validate.Report `json:"chain"`
	Signatures validate.Report `json:"signatures"`
}

// OK reports whether both passes succeeded.
func (vr ValidationResult) OK() bool {
	return vr.Chain.OK && vr.Signatures.OK
}

// =============================================================================

// RetrieveChain returns a copy of the whole chain.
func (s *State) RetrieveChain() []database.Block {
	return s.db.Blocks()
}

// RetrieveLatestBlock returns the last block appended to the chain.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// ValidateAll runs the chain and signature validation over one snapshot
// of the chain.
func (s *State) ValidateAll() ValidationResult {
	chain := s.db.Blocks()

	vr := ValidationResult{
		Chain:      validate.Chain(chain),
		Signatures: validate.Signatures(chain, s.registry),
	}

	s.evHandler("state: validate: chain[%s] signatures[%s]", vr.Chain.Detail, vr.Signatures.Detail)

	return vr
}

// QueryPetitions returns every petition ordered by the block that defines it.
func (s *State) QueryPetitions() []petition.Petition {
	return petition.Sorted(petition.List(s.db.Blocks()))
}

// QueryPetition returns the petition for the id.
func (s *State) QueryPetition(petitionID string) (petition.Petition, error) {
	p, exists := petition.List(s.db.Blocks())[petitionID]
	if !exists {
		return petition.Petition{}, fmt.Errorf("%w: %s", ErrPetitionNotFound, petitionID)
	}

	return p, nil
}

// QuerySigners returns the signatures on the petition in chain order, each
// verified against the registry.
func (s *State) QuerySigners(petitionID string) ([]Signer, error) {
	chain := s.db.Blocks()

	if !petition.Exists(chain, petitionID) {
		return nil, fmt.Errorf("%w: %s", ErrPetitionNotFound, petitionID)
	}

	sigs := petition.SignersOf(chain, petitionID)
	signers := make([]Signer, len(sigs))
	for i, sig := range sigs {
		signers[i] = Signer{Signature: sig, Verified: true}

		if err := validate.Signature(chain, blockAt(chain, sig.BlockIndex), s.registry); err != nil {
			signers[i].Verified = false
			signers[i].Reason = err.Error()
		}
	}

	return signers, nil
}

// QueryActivity returns the petitions created and signed by the user.
func (s *State) QueryActivity(username string) petition.Activity {
	return petition.ActivityOf(s.db.Blocks(), username)
}

// QueryStats returns the number of signatures collected by each petition.
func (s *State) QueryStats() []petition.Stat {
	return petition.Stats(s.db.Blocks())
}

// QueryPublicKey returns the public key registered for the user.
func (s *State) QueryPublicKey(username string) (string, error) {
	pem, exists := s.registry.Get(username)
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	return pem, nil
}

// =============================================================================

// blockAt finds the block with the index. The index matches the position in
// any chain written by this package, the scan covers chains that don't.
func blockAt(chain []database.Block, index uint64) database.Block {
	if index < uint64(len(chain)) && chain[index].Index == index {
		return chain[index]
	}

	for _, block := range chain {
		if block.Index == index {
			return block
		}
	}

	return database.Block{Index: index}
}
