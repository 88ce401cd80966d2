package state

import (
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/ardanlabs/petition/foundation/blockchain/database"
	"github.com/ardanlabs/petition/foundation/blockchain/petition"
	"github.com/ardanlabs/petition/foundation/blockchain/signature"
)

// RegisterOrLogin registers the user with the public half of the key. When
// no key is provided a new key pair is generated. A user that already signed
// a petition must log in with the key that was first registered.
func (s *State) RegisterOrLogin(username string, key *rsa.PrivateKey) (*rsa.PrivateKey, string, error) {
	if strings.TrimSpace(username) == "" {
		return nil, "", fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	if key == nil {
		var err error
		if key, err = signature.GenerateKey(); err != nil {
			return nil, "", fmt.Errorf("generating key: %w", err)
		}
	}

	pem, err := signature.PublicKeyPEM(key)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if err := s.registerKey(username, pem); err != nil {
		return nil, "", err
	}

	return key, pem, nil
}

// RegisterPublicKey registers a public key generated by a remote wallet. The
// same key replacement rules as RegisterOrLogin apply.
func (s *State) RegisterPublicKey(username string, publicKeyPEM string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	publicKey, err := signature.DecodePublicKey(publicKeyPEM)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	// Store every key in the same encoding so an identical key is never
	// mistaken for a replacement.
	pem, err := signature.EncodePublicKey(publicKey)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	return s.registerKey(username, pem)
}

// CreatePetition appends a CREATE_PETITION block. A petition id can only be
// created once.
func (s *State) CreatePetition(petitionID string, text string, creator string) (database.Block, error) {
	switch {
	case strings.TrimSpace(petitionID) == "":
		return database.Block{}, fmt.Errorf("%w: petition id is required", ErrInvalidInput)
	case strings.TrimSpace(text) == "":
		return database.Block{}, fmt.Errorf("%w: petition text is required", ErrInvalidInput)
	case strings.TrimSpace(creator) == "":
		return database.Block{}, fmt.Errorf("%w: creator is required", ErrInvalidInput)
	}

	block, err := s.db.Append(func(chain []database.Block) (database.TxData, error) {
		if petition.Exists(chain, petitionID) {
			return nil, fmt.Errorf("%w: %s", ErrPetitionExists, petitionID)
		}

		tx := database.CreatePetitionTx{
			PetitionID:   petitionID,
			PetitionText: text,
			Creator:      creator,
		}

		return tx, nil
	})
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: block[%d] type[%s] appended: petition[%s]", block.Index, block.TxType, petitionID)

	return block, nil
}

// SignPetition signs the petition text with the user's private key and
// appends the SIGN_PETITION block. The key must match the key registered
// for the user.
func (s *State) SignPetition(petitionID string, username string, key *rsa.PrivateKey) (database.Block, error) {
	if key == nil {
		return database.Block{}, fmt.Errorf("%w: private key is required", ErrInvalidInput)
	}

	sign := func(text string) (string, error) {
		return signature.Sign(signature.Message(text, username), key)
	}

	return s.appendSignature(petitionID, username, sign)
}

// SubmitSignature appends a signature produced by a remote wallet. The
// signature is verified against the registered key before it is accepted.
func (s *State) SubmitSignature(petitionID string, username string, sig string) (database.Block, error) {
	if strings.TrimSpace(sig) == "" {
		return database.Block{}, fmt.Errorf("%w: signature is required", ErrInvalidInput)
	}

	sign := func(string) (string, error) {
		return sig, nil
	}

	return s.appendSignature(petitionID, username, sign)
}

// =============================================================================

// registerKey stores the key for the user unless that would replace the key
// of a user who already signed a petition.
func (s *State) registerKey(username string, pem string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.registry.Get(username)
	if exists && current == pem {
		s.evHandler("state: login: user[%s]", username)
		return nil
	}

	if exists && petition.HasSignedAny(s.db.Blocks(), username) {
		s.evHandler("state: login: user[%s]: ERROR: %s", username, ErrKeyRotationForbidden)
		return fmt.Errorf("%w: %s", ErrKeyRotationForbidden, username)
	}

	if err := s.registry.Put(username, pem); err != nil {
		return fmt.Errorf("registering key: %w", err)
	}

	s.evHandler("state: register: user[%s]: replaced[%v]", username, exists)

	return nil
}

// appendSignature performs the checks shared by both signing paths and the
// append as one step. The sign function receives the text of the petition.
func (s *State) appendSignature(petitionID string, username string, sign func(text string) (string, error)) (database.Block, error) {
	switch {
	case strings.TrimSpace(petitionID) == "":
		return database.Block{}, fmt.Errorf("%w: petition id is required", ErrInvalidInput)
	case strings.TrimSpace(username) == "":
		return database.Block{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pem, exists := s.registry.Get(username)
	if !exists {
		return database.Block{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	block, err := s.db.Append(func(chain []database.Block) (database.TxData, error) {
		text, exists := petition.Text(chain, petitionID)
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrPetitionNotFound, petitionID)
		}

		if petition.HasSigned(chain, petitionID, username) {
			return nil, fmt.Errorf("%w: %s: %s", ErrAlreadySigned, petitionID, username)
		}

		sig, err := sign(text)
		if err != nil {
			return nil, fmt.Errorf("signing: %w", err)
		}

		if !signature.Verify(signature.Message(text, username), sig, pem) {
			return nil, fmt.Errorf("%w: %s: %s", ErrInvalidSignature, petitionID, username)
		}

		tx := database.SignPetitionTx{
			SignerUsername: username,
			PetitionID:     petitionID,
			Signature:      sig,
		}

		return tx, nil
	})
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: block[%d] type[%s] appended: petition[%s] signer[%s]", block.Index, block.TxType, petitionID, username)

	return block, nil
}
