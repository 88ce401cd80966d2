package signature_test

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ardanlabs/petition/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

var (
	keysOnce sync.Once
	key1     *rsa.PrivateKey
	key2     *rsa.PrivateKey
)

func keys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	keysOnce.Do(func() {
		var err error
		if key1, err = signature.GenerateKey(); err != nil {
			t.Fatalf("Should be able to generate a private key: %s", err)
		}
		if key2, err = signature.GenerateKey(); err != nil {
			t.Fatalf("Should be able to generate a private key: %s", err)
		}
	})

	return key1, key2
}

func flip(s string) string {
	b := []byte(s)
	if b[0] == 'A' {
		b[0] = 'B'
	} else {
		b[0] = 'A'
	}
	return string(b)
}

// =============================================================================

func Test_Signing(t *testing.T) {
	pk1, pk2 := keys(t)

	pub1, err := signature.PublicKeyPEM(pk1)
	if err != nil {
		t.Fatalf("Should be able to encode the public key: %s", err)
	}
	pub2, err := signature.PublicKeyPEM(pk2)
	if err != nil {
		t.Fatalf("Should be able to encode the public key: %s", err)
	}

	message := signature.Message("Save the rhino", "bob")
	if string(message) != "Save the rhinobob" {
		t.Fatalf("Should build the message without a separator, got %q", message)
	}

	sig, err := signature.Sign(message, pk1)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	type table struct {
		name    string
		message []byte
		sig     string
		pub     string
		exp     bool
	}

	tt := []table{
		{name: "matching", message: message, sig: sig, pub: pub1, exp: true},
		{name: "other-key", message: message, sig: sig, pub: pub2, exp: false},
		{name: "tampered-message", message: []byte("Save the rhinobov"), sig: sig, pub: pub1, exp: false},
		{name: "tampered-signature", message: message, sig: flip(sig), pub: pub1, exp: false},
		{name: "bad-base64", message: message, sig: "***", pub: pub1, exp: false},
		{name: "malformed-pem", message: message, sig: sig, pub: "not a key", exp: false},
		{name: "empty", message: message, sig: "", pub: "", exp: false},
	}

	t.Log("Given the need to verify signatures.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling the %s case.", testID, tst.name)
				{
					got := signature.Verify(tst.message, tst.sig, tst.pub)
					if got != tst.exp {
						t.Fatalf("\t%s\tTest %d:\tShould get back %v from verify.", failed, testID, tst.exp)
					}
					t.Logf("\t%s\tTest %d:\tShould get back %v from verify.", success, testID, tst.exp)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_SignMissingKey(t *testing.T) {
	t.Log("Given the need to fail loudly when signing without a key.")
	{
		_, err := signature.Sign([]byte("data"), nil)
		if !errors.Is(err, signature.ErrInvalidKey) {
			t.Fatalf("\t%s\tShould get back an invalid key error: %v", failed, err)
		}
		t.Logf("\t%s\tShould get back an invalid key error.", success)
	}
}

func Test_Hash(t *testing.T) {
	value := json.RawMessage(`{"index": 0, "timestamp": 1700000000.0, "transaction_type": "GENESIS", "transaction_data": {}, "previous_hash": "0"}`)
	hash := "5355efa126f1ec1a1a5bd1e0780c8e9b62d165b0c9e240f59b1f4b7296640c35"

	t.Log("Given the need to hash values.")
	{
		h := signature.Hash(value)
		if h != hash {
			t.Logf("got: %s", h)
			t.Logf("exp: %s", hash)
			t.Fatalf("\t%s\tShould get back the right hash.", failed)
		}
		t.Logf("\t%s\tShould get back the right hash.", success)

		h = signature.Hash(value)
		if h != hash {
			t.Fatalf("\t%s\tShould get back the same hash twice.", failed)
		}
		t.Logf("\t%s\tShould get back the same hash twice.", success)
	}
}

func Test_KeyEncoding(t *testing.T) {
	pk, _ := keys(t)

	t.Log("Given the need to persist and restore keys.")
	{
		path := filepath.Join(t.TempDir(), "alice.pem")
		if err := signature.SavePrivateKey(path, pk); err != nil {
			t.Fatalf("\t%s\tShould be able to save the private key: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to save the private key.", success)

		loaded, err := signature.LoadPrivateKey(path)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the private key: %v", failed, err)
		}
		if !loaded.Equal(pk) {
			t.Fatalf("\t%s\tShould load back the same private key.", failed)
		}
		t.Logf("\t%s\tShould load back the same private key.", success)

		pkcs1 := pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&pk.PublicKey)})
		pub, err := signature.DecodePublicKey(string(pkcs1))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to decode a PKCS1 public key: %v", failed, err)
		}
		if !pub.Equal(&pk.PublicKey) {
			t.Fatalf("\t%s\tShould decode the same public key.", failed)
		}
		t.Logf("\t%s\tShould be able to decode a PKCS1 public key.", success)

		sig, err := signature.Sign([]byte("x"), pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign data: %v", failed, err)
		}
		if !signature.Verify([]byte("x"), sig, string(pkcs1)) {
			t.Fatalf("\t%s\tShould verify against a PKCS1 public key.", failed)
		}
		t.Logf("\t%s\tShould verify against a PKCS1 public key.", success)
	}
}
