// Package crypt is the worker's encryption subsystem: it keeps the user
// password and turns encrypted batch payloads into decrypted batches.
//
// The plaintext password is held in memory for the lifetime of the worker.
// This is a deliberate tradeoff: every batch embeds its own salt, so a key
// must be derived per batch and a single global key cannot be kept instead.
// Call Close to wipe the password when the worker shuts down.
package crypt

import (
	"bytes"
	"fmt"

	"github.com/planquery/appealvault/internal/archive/models"
	"github.com/planquery/appealvault/internal/common"
	"github.com/planquery/appealvault/internal/cryptox"
	"github.com/planquery/appealvault/internal/encodingx"
)

// Service derives per-batch keys from the stored password and performs
// authenticated decryption of batch payloads.
type Service struct {
	password []byte
}

func NewService() *Service {
	return &Service{}
}

// InitializeWithPassword stores a copy of the password for later per-batch
// key derivation. Any previously stored password is wiped first.
func (s *Service) InitializeWithPassword(password []byte) {
	s.Close()
	s.password = make([]byte, len(password))
	copy(s.password, password)
}

// Initialized reports whether a password has been stored.
func (s *Service) Initialized() bool {
	return s.password != nil
}

// DeriveKeyFromBatchSalt derives this batch's AES-256 key from the stored
// password and the given salt (PBKDF2-HMAC-SHA256, 600,000 iterations).
func (s *Service) DeriveKeyFromBatchSalt(salt []byte) ([]byte, error) {
	if !s.Initialized() {
		return nil, common.ErrNotAuthenticated
	}
	return cryptox.DeriveBatchKey(s.password, salt), nil
}

// DecryptBatch derives the batch key from the payload's salt and opens the
// ciphertext. Any failure (missing salt, wrong password, corrupted or
// tampered data) wraps common.ErrDecryptFailed; the caller treats the batch
// as unreadable, not as a fatal condition for the whole search.
func (s *Service) DecryptBatch(payload *models.EncryptedBatchPayload) (*models.DecryptedBatch, error) {
	if !s.Initialized() {
		return nil, common.ErrNotAuthenticated
	}
	if len(payload.Salt) == 0 {
		return nil, fmt.Errorf("%w: %w", common.ErrDecryptFailed, common.ErrLegacyPayload)
	}
	if len(payload.Checksum) > 0 {
		if !bytes.Equal(payload.Checksum, cryptox.Checksum(payload.Data)) {
			return nil, fmt.Errorf("%w: checksum mismatch", common.ErrDecryptFailed)
		}
	}

	key, err := s.DeriveKeyFromBatchSalt(payload.Salt)
	if err != nil {
		return nil, err
	}

	var batch models.DecryptedBatch
	if err := cryptox.DecryptJSON(payload.Data, payload.IV, key, &batch); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecryptFailed, err)
	}
	return &batch, nil
}

// Close wipes the stored password.
func (s *Service) Close() {
	common.WipeByteArray(s.password)
	s.password = nil
}

// SaltSize is the per-batch PBKDF2 salt length in bytes.
const SaltSize = 16

// NewBatchSalt returns a fresh random per-batch salt for EncryptBatch.
func NewBatchSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// EncryptBatch produces a payload in the archive wire format for the given
// batch, password and salt. Used by the offline ingestion tooling and by
// round-trip tests; the worker itself never encrypts.
func EncryptBatch(batch *models.DecryptedBatch, password, salt []byte) (*models.EncryptedBatchPayload, error) {
	key := cryptox.DeriveBatchKey(password, salt)
	ciphertext, nonce, err := cryptox.EncryptJSON(batch, key)
	if err != nil {
		return nil, err
	}

	return &models.EncryptedBatchPayload{
		Version:   "1.0",
		Algorithm: "AES-GCM",
		IV:        encodingx.FlexBytes(nonce),
		Data:      encodingx.FlexBytes(ciphertext),
		Checksum:  encodingx.FlexBytes(cryptox.Checksum(ciphertext)),
		Salt:      encodingx.FlexBytes(salt),
		Metadata: models.BatchMetadata{
			BatchID:       batch.BatchID,
			DocumentCount: len(batch.Documents),
			EncryptedSize: int64(len(ciphertext)),
		},
	}, nil
}
