package public

import (
	"github.com/ardanlabs/petition/business/sys/validate"
	"github.com/ardanlabs/petition/foundation/blockchain/database"
)

// NewUser is what a wallet posts to register its public key.
type NewUser struct {
	Username  string `json:"username" validate:"required,ident"`
	PublicKey string `json:"public_key" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (nu NewUser) Validate() error {
	return validate.Check(nu)
}

// NewPetition is what a client posts to create a petition.
type NewPetition struct {
	PetitionID string `json:"petition_id" validate:"required,ident"`
	Text       string `json:"text" validate:"required"`
	Creator    string `json:"creator" validate:"required,ident"`
}

// Validate checks the data in the model is considered clean.
func (np NewPetition) Validate() error {
	return validate.Check(np)
}

// NewSignature is what a wallet posts after signing a petition locally.
type NewSignature struct {
	Username  string `json:"username" validate:"required,ident"`
	Signature string `json:"signature" validate:"required,base64"`
}

// Validate checks the data in the model is considered clean.
func (ns NewSignature) Validate() error {
	return validate.Check(ns)
}

// User is the registration of a username.
type User struct {
	Username  string `json:"username"`
	PublicKey string `json:"public_key"`
}

// Appended reports the block a write request produced.
type Appended struct {
	Status string         `json:"status"`
	Block  database.Block `json:"block"`
}
