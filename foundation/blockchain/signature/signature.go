// Package signature provides helper functions for handling the blockchain
// signature needs.
package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/petition/foundation/blockchain/canonical"
)

// ZeroHash represents the previous hash value of the genesis block.
const ZeroHash string = "0"

// KeyBits is the size of every key pair minted for the ledger.
const KeyBits = 2048

// ErrInvalidKey is returned when a key is missing or can't be decoded.
var ErrInvalidKey = errors.New("invalid key")

// =============================================================================

// Hash returns a unique string for the value. The value is encoded in its
// canonical form so the same logical content always produces the same hash.
func Hash(value any) string {
	data, err := canonical.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Message constructs the exact bytes a signer signs for a petition. The text
// and the username are concatenated without a separator.
func Message(petitionText string, username string) []byte {
	return []byte(petitionText + username)
}

// GenerateKey produces a fresh key pair.
func GenerateKey() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, KeyBits)
}

// Sign uses the specified private key to sign the message. The message is
// hashed with SHA-256, signed with PKCS #1 v1.5 and returned base64 encoded.
func Sign(message []byte, privateKey *rsa.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", fmt.Errorf("%w: private key is missing", ErrInvalidKey)
	}

	if err := privateKey.Validate(); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidKey, err)
	}

	hash := sha256.Sum256(message)
	sig, err := rsa.SignPKCS1v15(rand.Reader, privateKey, crypto.SHA256, hash[:])
	if err != nil {
		return "", fmt.Errorf("signing message: %w", err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks the base64 signature for the message against the PEM
// encoded public key. Any malformed input is reported as an invalid
// signature, Verify never fails with an error.
func Verify(message []byte, sig string, publicKeyPEM string) bool {
	publicKey, err := DecodePublicKey(publicKeyPEM)
	if err != nil {
		return false
	}

	sigBytes, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return false
	}

	hash := sha256.Sum256(message)
	return rsa.VerifyPKCS1v15(publicKey, crypto.SHA256, hash[:], sigBytes) == nil
}

// =============================================================================

// EncodePublicKey returns the PEM form of the public key as a
// SubjectPublicKeyInfo "PUBLIC KEY" block.
func EncodePublicKey(publicKey *rsa.PublicKey) (string, error) {
	if publicKey == nil {
		return "", fmt.Errorf("%w: public key is missing", ErrInvalidKey)
	}

	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}

	block := pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return string(pem.EncodeToMemory(&block)), nil
}

// DecodePublicKey parses a PEM encoded RSA public key in either the
// SubjectPublicKeyInfo or the PKCS #1 form.
func DecodePublicKey(publicKeyPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM data found", ErrInvalidKey)
	}

	switch block.Type {
	case "RSA PUBLIC KEY":
		publicKey, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
		}
		return publicKey, nil

	default:
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
		}

		publicKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA public key", ErrInvalidKey)
		}
		return publicKey, nil
	}
}

// EncodePrivateKey returns the PEM form of the private key as a PKCS #1
// "RSA PRIVATE KEY" block.
func EncodePrivateKey(privateKey *rsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("%w: private key is missing", ErrInvalidKey)
	}

	block := pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privateKey)}
	return pem.EncodeToMemory(&block), nil
}

// DecodePrivateKey parses a PEM encoded RSA private key in either the PKCS #1
// or the PKCS #8 form.
func DecodePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM data found", ErrInvalidKey)
	}

	if privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return privateKey, nil
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
	}

	privateKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA private key", ErrInvalidKey)
	}

	return privateKey, nil
}

// PublicKeyPEM is a convenience for returning the PEM form of the public half
// of a private key.
func PublicKeyPEM(privateKey *rsa.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", fmt.Errorf("%w: private key is missing", ErrInvalidKey)
	}

	return EncodePublicKey(&privateKey.PublicKey)
}

// SavePrivateKey writes the private key to the named file in PEM form with
// restrictive permissions.
func SavePrivateKey(path string, privateKey *rsa.PrivateKey) error {
	data, err := EncodePrivateKey(privateKey)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// LoadPrivateKey reads a PEM encoded private key from the named file.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return DecodePrivateKey(data)
}
