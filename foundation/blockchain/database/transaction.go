package database

import (
	"encoding/json"
	"fmt"
)

// TxType identifies the kind of event a block records.
type TxType string

// Set of transaction types the ledger knows how to record.
const (
	TxTypeGenesis        TxType = "GENESIS"
	TxTypeCreatePetition TxType = "CREATE_PETITION"
	TxTypeSignPetition   TxType = "SIGN_PETITION"
)

// TxData represents the payload of a block. The set of implementations is
// closed to this package: GenesisTx, CreatePetitionTx, SignPetitionTx and
// UnknownTx.
type TxData interface {
	Type() TxType
	isTxData()
}

// =============================================================================

// GenesisTx is the empty payload of the genesis block.
type GenesisTx struct{}

// Type implements the TxData interface.
func (GenesisTx) Type() TxType { return TxTypeGenesis }
func (GenesisTx) isTxData()    {}

// CreatePetitionTx records the creation of a petition.
type CreatePetitionTx struct {
	PetitionID   string `json:"petition_id"`
	PetitionText string `json:"petition_text"`
	Creator      string `json:"creator,omitempty"` // Absent in some early ledgers.
}

// Type implements the TxData interface.
func (CreatePetitionTx) Type() TxType { return TxTypeCreatePetition }
func (CreatePetitionTx) isTxData()    {}

// SignPetitionTx records a signer's signature over a petition. The signature
// covers the petition text followed by the signer's username.
type SignPetitionTx struct {
	SignerUsername string `json:"signer_username"`
	PetitionID     string `json:"petition_id"`
	Signature      string `json:"signature"`
}

// Type implements the TxData interface.
func (SignPetitionTx) Type() TxType { return TxTypeSignPetition }
func (SignPetitionTx) isTxData()    {}

// Complete reports whether every field of the signature record is present.
func (tx SignPetitionTx) Complete() bool {
	return tx.SignerUsername != "" && tx.PetitionID != "" && tx.Signature != ""
}

// UnknownTx is the payload of a block whose type this version of the ledger
// doesn't know. The payload is kept verbatim so the block still hashes and
// persists the way it was written.
type UnknownTx struct {
	Kind    TxType
	Payload string
}

// Type implements the TxData interface.
func (tx UnknownTx) Type() TxType { return tx.Kind }
func (UnknownTx) isTxData()       {}

// MarshalJSON implements the json.Marshaler interface.
func (tx UnknownTx) MarshalJSON() ([]byte, error) {
	if tx.Payload == "" {
		return []byte("{}"), nil
	}
	return []byte(tx.Payload), nil
}

// =============================================================================

// decodeTxData converts the raw payload into the variant named by the type.
// A type outside the known set decodes into UnknownTx.
func decodeTxData(txType TxType, data json.RawMessage) (TxData, error) {
	if len(data) == 0 || string(data) == "null" {
		data = json.RawMessage("{}")
	}

	switch txType {
	case TxTypeGenesis:
		var tx GenesisTx
		if err := json.Unmarshal(data, &tx); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", txType, err)
		}
		return tx, nil

	case TxTypeCreatePetition:
		var tx CreatePetitionTx
		if err := json.Unmarshal(data, &tx); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", txType, err)
		}
		return tx, nil

	case TxTypeSignPetition:
		var tx SignPetitionTx
		if err := json.Unmarshal(data, &tx); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", txType, err)
		}
		return tx, nil
	}

	return UnknownTx{Kind: txType, Payload: string(data)}, nil
}
