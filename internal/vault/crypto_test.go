package vault

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealOpen(t *testing.T) {
	key := []byte("thisis32byteslongsecretkey123456") // 32 bytes for AES-256
	plaintext := []byte(`{"accounts":{}}`)

	sealed, err := Seal(plaintext, key)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	if bytes.Contains(sealed, plaintext) {
		t.Fatal("Sealed blob should not contain the plaintext")
	}
	if !IsSealed(sealed) {
		t.Fatal("Sealed blob should carry the sealed prefix")
	}

	opened, err := Open(sealed, key)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if !bytes.Equal(opened, plaintext) {
		t.Errorf("Expected %s, got %s", plaintext, opened)
	}
}

func TestOpenWithWrongKey(t *testing.T) {
	key1 := []byte("thisis32byteslongsecretkey123456")
	key2 := []byte("another32byteslongsecretkey65432")

	sealed, err := Seal([]byte("Secret message"), key1)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	if _, err := Open(sealed, key2); err == nil {
		t.Fatal("Open should have failed with wrong key")
	}
}

func TestOpenWithoutKey(t *testing.T) {
	sealed, err := Seal([]byte("x"), []byte("thisis32byteslongsecretkey123456"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if _, err := Open(sealed, nil); !errors.Is(err, ErrSealed) {
		t.Errorf("Expected ErrSealed, got %v", err)
	}
}

func TestOpenPassesPlainBlobs(t *testing.T) {
	plain := []byte(`{"user_stores":{}}`)
	opened, err := Open(plain, nil)
	if err != nil || !bytes.Equal(opened, plain) {
		t.Errorf("Expected plain blob back, got %s, %v", opened, err)
	}
}

func TestInvalidKeySize(t *testing.T) {
	if _, err := Seal([]byte("test"), []byte("shortkey")); err == nil {
		t.Fatal("Seal should have failed with an invalid key size")
	}
}
