// Package common defines shared constants and sentinel errors used across
// the appealvault archive worker. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Pre-flight errors: the worker rejects a request before any batch work.
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrManifestNotLoaded = errors.New("manifest not loaded")

	// Policy errors (fatal during initialization).
	ErrPolicyViolation = errors.New("unencrypted batch in manifest")

	// Availability errors.
	ErrStorageUnavailable = errors.New("cold storage unavailable")
	ErrBatchNotFound      = errors.New("batch not found")

	// Decrypt errors (per-batch, non-fatal for a search).
	ErrDecryptFailed = errors.New("batch decrypt failed")
	ErrLegacyPayload = errors.New("payload has no salt (legacy format)")

	// Aggregate search errors.
	ErrAllBatchesFailed = errors.New("every batch failed to load or decrypt")

	// Transport errors.
	ErrRequestTimeout = errors.New("request timed out")
	ErrWorkerClosed   = errors.New("worker closed")
)
