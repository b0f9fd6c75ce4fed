package storage

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/chacha20poly1305"
)

var errCiphertextTooShort = errors.New("ciphertext shorter than nonce")

// codec performs the optional value transformations of the envelope:
// zstd compression above a size threshold and XChaCha20-Poly1305
// authenticated encryption for sensitive keys.
type codec struct {
	aead      cipher.AEAD
	enc       *zstd.Encoder
	dec       *zstd.Decoder
	threshold int
	compress  bool
}

func newCodec(secret string, compressEnabled bool, threshold int) (*codec, error) {
	key := sha256.Sum256([]byte(secret))
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("init compressor: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("init decompressor: %w", err)
	}

	return &codec{
		aead:      aead,
		enc:       enc,
		dec:       dec,
		threshold: threshold,
		compress:  compressEnabled,
	}, nil
}

// shouldCompress applies the threshold rule: small payloads gain nothing.
func (c *codec) shouldCompress(payload []byte) bool {
	return c.compress && len(payload) > c.threshold
}

func (c *codec) compressValue(payload []byte) string {
	return base64.StdEncoding.EncodeToString(c.enc.EncodeAll(payload, nil))
}

func (c *codec) decompressValue(value string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode compressed value: %w", err)
	}
	payload, err := c.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress value: %w", err)
	}
	return payload, nil
}

func (c *codec) encryptValue(payload []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, payload, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *codec) decryptValue(value string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode encrypted value: %w", err)
	}
	if len(sealed) < c.aead.NonceSize() {
		return nil, errCiphertextTooShort
	}
	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	payload, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt value: %w", err)
	}
	return payload, nil
}
