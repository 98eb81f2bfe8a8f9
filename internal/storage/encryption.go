package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyLength   = 32
	nonceLength = 12
	saltLength  = 32
	iterations  = 100000
)

// ErrUnreadable means the passphrase does not open the data or the data is damaged.
var ErrUnreadable = errors.New("invalid passphrase or corrupted data")

// EncryptedData is an AES-GCM envelope whose key is derived with PBKDF2-SHA256.
type EncryptedData struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

func Encrypt(data []byte, passphrase string) (*EncryptedData, error) {
	salt, err := randomBytes(saltLength)
	if err != nil {
		return nil, err
	}
	nonce, err := randomBytes(nonceLength)
	if err != nil {
		return nil, err
	}

	aead, err := deriveAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	return &EncryptedData{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, data, nil),
	}, nil
}

func Decrypt(sealed *EncryptedData, passphrase string) ([]byte, error) {
	if sealed == nil {
		return nil, errors.New("encrypted data is nil")
	}
	if len(sealed.Nonce) != nonceLength {
		return nil, ErrUnreadable
	}

	aead, err := deriveAEAD(passphrase, sealed.Salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, sealed.Nonce, sealed.Ciphertext, nil)
	if err != nil {
		return nil, ErrUnreadable
	}
	return plaintext, nil
}

func deriveAEAD(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, iterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

func randomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return buf, nil
}
