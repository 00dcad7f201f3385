package models

import "github.com/planquery/appealvault/internal/encodingx"

// BatchMetadata is the cleartext metadata carried alongside a batch's
// ciphertext.
type BatchMetadata struct {
	BatchID       string `json:"batchId"`
	DocumentCount int    `json:"documentCount"`
	OriginalSize  int64  `json:"originalSize"`
	CompressedSize int64 `json:"compressedSize"`
	EncryptedSize int64  `json:"encryptedSize"`
}

// EncryptedBatchPayload is the wire format of one batch file. The binary
// fields accept both base64 strings and numeric byte arrays (see
// encodingx.FlexBytes). Salt must be present: payloads without it use an
// incompatible legacy format and are rejected at decrypt time.
type EncryptedBatchPayload struct {
	Version   string              `json:"version"`
	Algorithm string              `json:"algorithm"`
	IV        encodingx.FlexBytes `json:"iv"`
	Data      encodingx.FlexBytes `json:"data"`
	Checksum  encodingx.FlexBytes `json:"checksum,omitempty"`
	Salt      encodingx.FlexBytes `json:"salt"`
	Metadata  BatchMetadata       `json:"metadata"`
}

// ArchivedDocument is one decision letter inside a decrypted batch. The
// metadata map carries domain fields such as case reference, decision date
// and outcome.
type ArchivedDocument struct {
	ID       string            `json:"id"`
	Filename string            `json:"filename"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// DecryptedBatch is the plaintext batch body. Created transiently by
// decryption, never persisted; dropped when evicted from the cache.
type DecryptedBatch struct {
	BatchID   string             `json:"batchId"`
	Documents []ArchivedDocument `json:"documents"`
}
