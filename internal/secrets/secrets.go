// Package secrets wraps symmetric encryption for credentials stored inside
// tenant configuration blobs. Encrypted values carry the "encrypted:" prefix;
// anything without the prefix is treated as plaintext.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prefix marks a stored value as encrypted. A value is encrypted iff it
// starts with this literal prefix.
const Prefix = "encrypted:"

// ErrCredential indicates a value could not be decrypted, either because the
// ciphertext is malformed or the key is wrong.
var ErrCredential = errors.New("secrets: credential decryption failed")

// Keeper encrypts and decrypts credential values using a single process-wide
// secret. The secret is hashed to a fixed-size AES-256 key so operators can
// configure any passphrase.
type Keeper struct {
	key [32]byte
}

// NewKeeper derives a Keeper from the configured secret.
func NewKeeper(secret string) (*Keeper, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("secrets: secret is required")
	}
	return &Keeper{key: sha256.Sum256([]byte(secret))}, nil
}

// IsEncrypted reports whether the stored value carries the encrypted prefix.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, Prefix)
}

// Encrypt seals plaintext with AES-256-GCM and returns the prefixed,
// base64-encoded value ready to be stored in a tenant config blob.
func (k *Keeper) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(k.key[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return Prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a prefixed ciphertext produced by Encrypt. The prefix must be
// present; callers that may hold plaintext should use Reveal instead.
func (k *Keeper) Decrypt(value string) (string, error) {
	if !IsEncrypted(value) {
		return "", fmt.Errorf("%w: missing %q prefix", ErrCredential, Prefix)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredential, err)
	}
	block, err := aes.NewCipher(k.key[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	ns := gcm.NonceSize()
	if len(raw) < ns {
		return "", fmt.Errorf("%w: ciphertext too short", ErrCredential)
	}
	plain, err := gcm.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredential, err)
	}
	return string(plain), nil
}

// Reveal returns the value as-is when it is plaintext and decrypts it when it
// carries the encrypted prefix.
func (k *Keeper) Reveal(value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}
	return k.Decrypt(value)
}
