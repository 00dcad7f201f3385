package cryptox

import (
	"bytes"
	"testing"
)

func TestDeriveBatchKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveBatchKey(password, salt)
	key2 := DeriveBatchKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}
	if len(key1) != KeySize {
		t.Errorf("expected %d-byte key, got %d", KeySize, len(key1))
	}
}

func TestDeriveBatchKey_DifferentInputs(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveBatchKey(password, []byte("salt-1"))
	key2 := DeriveBatchKey(password, []byte("salt-2"))

	// different salts must yield different batch keys
	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}

	key3 := DeriveBatchKey([]byte("other-password"), []byte("salt-1"))
	if bytes.Equal(key1, key3) {
		t.Errorf("expected different results for different passwords, got same")
	}
}

func TestEncryptDecryptJSON_RoundTrip(t *testing.T) {
	type doc struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	}

	key := DeriveBatchKey([]byte("password"), []byte("salt"))
	orig := doc{ID: "doc-1", Content: "planning appeal dismissed"}

	ciphertext, nonce, err := EncryptJSON(orig, key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if len(nonce) != NonceSize {
		t.Fatalf("expected %d-byte nonce, got %d", NonceSize, len(nonce))
	}

	var got doc
	if err := DecryptJSON(ciphertext, nonce, key, &got); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got != orig {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, orig)
	}
}

func TestDecryptJSON_WrongKeyFailsCleanly(t *testing.T) {
	key := DeriveBatchKey([]byte("password"), []byte("salt"))
	ciphertext, nonce, err := EncryptJSON(map[string]string{"a": "b"}, key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	wrongKey := DeriveBatchKey([]byte("wrong-password"), []byte("salt"))
	var out map[string]string
	if err := DecryptJSON(ciphertext, nonce, wrongKey, &out); err == nil {
		t.Fatal("expected error decrypting with wrong key, got nil")
	}
	if out != nil {
		t.Errorf("expected no output on failed decrypt, got %v", out)
	}
}

func TestDecryptJSON_TamperedCiphertextFails(t *testing.T) {
	key := DeriveBatchKey([]byte("password"), []byte("salt"))
	ciphertext, nonce, err := EncryptJSON("payload", key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	ciphertext[0] ^= 0xff

	var out string
	if err := DecryptJSON(ciphertext, nonce, key, &out); err == nil {
		t.Fatal("expected error decrypting tampered ciphertext, got nil")
	}
}
