// Package vault seals persisted state blobs with AES-GCM.
package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// sealedPrefix marks a blob written by Seal.
var sealedPrefix = []byte("sealed:v1:")

// ErrSealed is returned by Open when a sealed blob is read without a key.
var ErrSealed = errors.New("blob is sealed and no key was configured")

// Seal encrypts plaintext with a 32-byte key and returns a printable blob.
func Seal(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	// GCM needs a fresh nonce per message; it travels in front of the ciphertext.
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	out := make([]byte, len(sealedPrefix)+hex.EncodedLen(len(ciphertext)))
	copy(out, sealedPrefix)
	hex.Encode(out[len(sealedPrefix):], ciphertext)
	return out, nil
}

// Open reverses Seal. Blobs without the sealed prefix are returned unchanged,
// so plain JSON written before a key was configured stays readable.
func Open(blob, key []byte) ([]byte, error) {
	if !IsSealed(blob) {
		return blob, nil
	}
	if len(key) == 0 {
		return nil, ErrSealed
	}

	ciphertext := make([]byte, hex.DecodedLen(len(blob)-len(sealedPrefix)))
	if _, err := hex.Decode(ciphertext, blob[len(sealedPrefix):]); err != nil {
		return nil, fmt.Errorf("decoding sealed blob: %w", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, actualCiphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, actualCiphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong key or tampered data)")
	}
	return plaintext, nil
}

// IsSealed reports whether blob was produced by Seal.
func IsSealed(blob []byte) bool {
	return bytes.HasPrefix(blob, sealedPrefix)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
