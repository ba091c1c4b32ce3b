package relay

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/farehop/farehop/pkg/domain"
)

// Codec turns store keys into opaque, tamper-evident continuation tokens and
// back. Every stage gets its own AES-256 key, derived from one deployment
// secret plus the stage's purpose string, so a token minted by one stage
// fails authentication under every other stage's key.
type Codec struct {
	keys map[domain.Stage][]byte
}

// MinSecretLen is the shortest deployment secret NewCodec accepts.
const MinSecretLen = 16

// NewCodec derives the per-stage keys from the deployment secret.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("relay secret must be at least %d bytes", MinSecretLen)
	}

	keys := make(map[domain.Stage][]byte)
	for _, st := range []domain.Stage{
		domain.StageSearch, domain.StageSelect, domain.StageCheckoutInit,
		domain.StageSightSearch, domain.StageSightSelect,
	} {
		spec, err := st.Spec()
		if err != nil {
			return nil, err
		}
		sum := sha256.Sum256(append(append([]byte{}, secret...), []byte(":"+spec.Purpose)...))
		keys[st] = sum[:]
	}
	return &Codec{keys: keys}, nil
}

// Encode encrypts plaintext under the stage's key and returns a URL-safe
// token (nonce prepended to the GCM ciphertext, base64 raw-URL encoded).
func (c *Codec) Encode(stage domain.Stage, plaintext string) (string, error) {
	key, ok := c.keys[stage]
	if !ok {
		return "", fmt.Errorf("stage %q has no token key", stage)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode recovers the plaintext from a token. Any malformed, truncated, or
// tampered token yields domain.ErrInvalidReference; Decode never panics and
// never leaks cipher internals to the caller.
func (c *Codec) Decode(stage domain.Stage, token string) (string, error) {
	key, ok := c.keys[stage]
	if !ok {
		return "", fmt.Errorf("stage %q has no token key", stage)
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: not base64", domain.ErrInvalidReference)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	if len(raw) < gcm.NonceSize() {
		return "", fmt.Errorf("%w: token too short", domain.ErrInvalidReference)
	}

	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", domain.ErrInvalidReference)
	}
	return string(plain), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
