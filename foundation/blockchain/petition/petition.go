// Package petition derives the read model of petitions and signatures by
// replaying the chain. Nothing here is stored, every view is computed from
// the blocks handed in.
package petition

import (
	"sort"

	"github.com/ardanlabs/petition/foundation/blockchain/database"
)

// Petition is a petition as defined by its CREATE_PETITION block. When the
// id was defined more than once, SigningText keeps the text of the first
// definition, which is what signatures are made and verified over.
type Petition struct {
	ID          string             `json:"petition_id"`
	Text        string             `json:"text"`
	SigningText string             `json:"signing_text"`
	Creator     string             `json:"creator"`
	CreatedAt   database.Timestamp `json:"created_at"`
	BlockIndex  uint64             `json:"block_index"`
}

// Signature is one SIGN_PETITION record.
type Signature struct {
	PetitionID string             `json:"petition_id"`
	Username   string             `json:"signer_username"`
	Signature  string             `json:"signature"`
	Timestamp  database.Timestamp `json:"timestamp"`
	BlockIndex uint64             `json:"block_index"`
}

// Activity is everything a user authored on the chain.
type Activity struct {
	Created []Petition  `json:"created"`
	Signed  []Signature `json:"signed"`
}

// Stat is the number of signatures a petition has collected.
type Stat struct {
	PetitionID string `json:"petition_id"`
	Text       string `json:"text"`
	Signers    int    `json:"signers"`
}

// =============================================================================

// List returns every petition keyed by id. When an id was created more than
// once, the latest definition in chain order wins.
func List(chain []database.Block) map[string]Petition {
	petitions := make(map[string]Petition)
	for _, block := range chain {
		if p, ok := toPetition(block); ok {
			if first, exists := petitions[p.ID]; exists {
				p.SigningText = first.SigningText
			}
			petitions[p.ID] = p
		}
	}

	return petitions
}

// Sorted returns the petitions ordered by the block that defines them.
func Sorted(petitions map[string]Petition) []Petition {
	out := make([]Petition, 0, len(petitions))
	for _, p := range petitions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BlockIndex < out[j].BlockIndex })

	return out
}

// Text returns the text of the first definition of the petition. This is the
// text every signature over the petition is verified against.
func Text(chain []database.Block, petitionID string) (string, bool) {
	for _, block := range chain {
		if tx, ok := block.TxData.(database.CreatePetitionTx); ok && tx.PetitionID == petitionID {
			return tx.PetitionText, true
		}
	}

	return "", false
}

// Exists reports whether a petition with the id was ever created.
func Exists(chain []database.Block, petitionID string) bool {
	_, exists := Text(chain, petitionID)
	return exists
}

// SignersOf returns the signatures for the petition in chain order.
func SignersOf(chain []database.Block, petitionID string) []Signature {
	var out []Signature
	for _, block := range chain {
		if s, ok := toSignature(block); ok && s.PetitionID == petitionID {
			out = append(out, s)
		}
	}

	return out
}

// HasSigned reports whether the user already signed the petition.
func HasSigned(chain []database.Block, petitionID string, username string) bool {
	for _, s := range SignersOf(chain, petitionID) {
		if s.Username == username {
			return true
		}
	}

	return false
}

// HasSignedAny reports whether the user signed any petition.
func HasSignedAny(chain []database.Block, username string) bool {
	for _, block := range chain {
		if s, ok := toSignature(block); ok && s.Username == username {
			return true
		}
	}

	return false
}

// ActivityOf partitions the blocks authored by the user into the petitions
// created and the signatures given, both in chain order.
func ActivityOf(chain []database.Block, username string) Activity {
	act := Activity{
		Created: []Petition{},
		Signed:  []Signature{},
	}

	for _, block := range chain {
		if block.Creator() != username {
			continue
		}
		if p, ok := toPetition(block); ok {
			act.Created = append(act.Created, p)
			continue
		}
		if s, ok := toSignature(block); ok {
			act.Signed = append(act.Signed, s)
		}
	}

	return act
}

// Stats counts the signatures of every petition. Petitions are returned in
// the order they were first created. Signatures over unknown petitions are
// not counted.
func Stats(chain []database.Block) []Stat {
	var stats []Stat
	pos := make(map[string]int)

	for _, block := range chain {
		tx, ok := block.TxData.(database.CreatePetitionTx)
		if !ok {
			continue
		}

		if i, exists := pos[tx.PetitionID]; exists {
			stats[i].Text = tx.PetitionText
			continue
		}
		pos[tx.PetitionID] = len(stats)
		stats = append(stats, Stat{PetitionID: tx.PetitionID, Text: tx.PetitionText})
	}

	for _, block := range chain {
		if tx, ok := block.TxData.(database.SignPetitionTx); ok {
			if i, exists := pos[tx.PetitionID]; exists {
				stats[i].Signers++
			}
		}
	}

	return stats
}

// =============================================================================

func toPetition(block database.Block) (Petition, bool) {
	tx, ok := block.TxData.(database.CreatePetitionTx)
	if !ok {
		return Petition{}, false
	}

	p := Petition{
		ID:          tx.PetitionID,
		Text:        tx.PetitionText,
		SigningText: tx.PetitionText,
		Creator:     tx.Creator,
		CreatedAt:   block.Timestamp,
		BlockIndex:  block.Index,
	}

	return p, true
}

func toSignature(block database.Block) (Signature, bool) {
	tx, ok := block.TxData.(database.SignPetitionTx)
	if !ok {
		return Signature{}, false
	}

	s := Signature{
		PetitionID: tx.PetitionID,
		Username:   tx.SignerUsername,
		Signature:  tx.Signature,
		Timestamp:  block.Timestamp,
		BlockIndex: block.Index,
	}

	return s, true
}
