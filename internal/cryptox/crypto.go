// Package cryptox implements the archive's cryptographic primitives:
// password-based key derivation and authenticated encryption of batch
// bodies. Higher-level payload handling (salt presence, wire encodings)
// lives in internal/archive/crypt.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/json"

	"golang.org/x/crypto/pbkdf2"

	"github.com/planquery/appealvault/internal/common"
)

const (
	// PBKDF2Iterations is fixed by the archive format. Changing it breaks
	// every batch produced by the ingestion pipeline.
	PBKDF2Iterations = 600_000

	// KeySize is the derived AES-256 key length in bytes.
	KeySize = 32

	// NonceSize is the AES-GCM IV length in bytes.
	NonceSize = 12
)

// DeriveBatchKey runs PBKDF2-HMAC-SHA256 over the password and the given
// per-batch salt, returning a 256-bit symmetric key. The same
// password/salt pair always yields the same key.
func DeriveBatchKey(password []byte, salt []byte) []byte {
	return pbkdf2.Key(password, salt, PBKDF2Iterations, KeySize, sha256.New)
}

// EncryptJSON serializes v to JSON and encrypts it with AES-256-GCM under
// key. A fresh random 12-byte nonce is generated per call and returned
// alongside the ciphertext.
//
// This is the counterpart of DecryptJSON and is what the offline ingestion
// tooling uses to produce batch files.
func EncryptJSON(v any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(NonceSize)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// DecryptJSON decrypts ciphertext with AES-256-GCM under key and nonce, then
// unmarshals the resulting JSON into v. A wrong key, wrong nonce or
// tampered ciphertext fails the GCM authentication check and returns an
// error; no corrupted plaintext is ever produced.
func DecryptJSON(ciphertext, nonce, key []byte, v any) error {
	aesgcm, err := newGCM(key)
	if err != nil {
		return err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return err
	}

	return json.Unmarshal(plaintext, v)
}

// Checksum returns the SHA-256 digest of data. Batch files may carry it so
// ingestion can be verified independently of decryption.
func Checksum(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
