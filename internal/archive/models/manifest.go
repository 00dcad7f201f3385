// Package models defines the data types shared by the cold-storage archive
// components: the storage manifest, encrypted batch payloads, decrypted
// documents, and the search request/response shapes.
package models

// DateRange is a half-open description of the decision dates covered by a
// batch, as ISO date strings ("2006-01-02"). Empty strings mean unbounded.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BatchDescriptor identifies one encrypted batch file in the manifest.
// Immutable once loaded.
type BatchDescriptor struct {
	BatchID       string    `json:"batchId"`
	URL           string    `json:"url"`
	DocumentCount int       `json:"documentCount"`
	DateRange     DateRange `json:"dateRange"`
	Keywords      []string  `json:"keywords"`
	Size          int64     `json:"size"`
	Encrypted     bool      `json:"encrypted"`
}

// ManifestMetadata documents the archive's encryption policy and key
// derivation parameters. These values are informational: actual key
// material always arrives out-of-band from the password prompt.
type ManifestMetadata struct {
	EncryptionPolicy    string `json:"encryptionPolicy"`
	EncryptionAlgorithm string `json:"encryptionAlgorithm"`
	KeyDerivation       string `json:"keyDerivation"`
	PBKDF2Iterations    int    `json:"pbkdf2Iterations"`
	BatchSizeLimit      int64  `json:"batchSizeLimit"`
	DocumentThreshold   int    `json:"documentThreshold"`
}

// StorageManifest is the catalog of the whole cold archive. Fetched once at
// initialization and held read-only for the worker's lifetime; it may be
// explicitly reloaded.
type StorageManifest struct {
	Version        string            `json:"version"`
	TotalDocuments int               `json:"totalDocuments"`
	TotalBatches   int               `json:"totalBatches"`
	LastUpdated    string            `json:"lastUpdated"`
	Batches        []BatchDescriptor `json:"batches"`
	Metadata       ManifestMetadata  `json:"metadata"`
}
