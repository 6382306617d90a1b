package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// FieldTransform converts one stored column on its way in and out of the store.
type FieldTransform struct {
	Encode func(plain string) (string, error)
	Decode func(stored string) (string, error)
}

// FieldTransforms maps field names to their transform. Fields without an
// entry are stored as given.
type FieldTransforms map[string]FieldTransform

func (t FieldTransforms) encode(field, value string) (string, error) {
	tr, ok := t[field]
	if !ok || value == "" {
		return value, nil
	}
	return tr.Encode(value)
}

func (t FieldTransforms) decode(field, value string) (string, error) {
	tr, ok := t[field]
	if !ok || value == "" {
		return value, nil
	}
	return tr.Decode(value)
}

// NewAESFieldTransforms encrypts the named fields with AES-GCM. An empty
// key yields no transforms.
func NewAESFieldTransforms(key []byte, fields ...string) (FieldTransforms, error) {
	transforms := FieldTransforms{}
	if len(key) == 0 {
		return transforms, nil
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}

	aesTransform := FieldTransform{
		Encode: func(plain string) (string, error) {
			nonce := make([]byte, gcm.NonceSize())
			if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
				return "", fmt.Errorf("failed to generate nonce: %w", err)
			}
			sealed := gcm.Seal(nonce, nonce, []byte(plain), nil)
			return base64.StdEncoding.EncodeToString(sealed), nil
		},
		Decode: func(stored string) (string, error) {
			sealed, err := base64.StdEncoding.DecodeString(stored)
			if err != nil {
				return "", fmt.Errorf("failed to decode encrypted value: %w", err)
			}
			if len(sealed) < gcm.NonceSize() {
				return "", fmt.Errorf("encrypted value too short")
			}
			nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
			plain, err := gcm.Open(nil, nonce, ciphertext, nil)
			if err != nil {
				return "", fmt.Errorf("failed to decrypt value: %w", err)
			}
			return string(plain), nil
		},
	}

	for _, f := range fields {
		transforms[f] = aesTransform
	}
	return transforms, nil
}
