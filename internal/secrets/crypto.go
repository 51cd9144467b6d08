package secrets

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
)

// IVSize is the length of the random prefix of every envelope.
const IVSize = aes.BlockSize

// newBlock builds the AES-256 block cipher keyed with the ASCII bytes of the
// derived hex key.
func newBlock(secret string) (cipher.Block, error) {
	return aes.NewCipher([]byte(DeriveKey(secret)))
}

// Encrypt seals plaintext into an IV-prefixed AES-256-CBC envelope.
func Encrypt(plaintext []byte, secret string) ([]byte, error) {
	return EncryptWithReader(rand.Reader, plaintext, secret)
}

// EncryptWithReader is Encrypt with an explicit source for the IV.
func EncryptWithReader(random io.Reader, plaintext []byte, secret string) ([]byte, error) {
	block, err := newBlock(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrEncryptFailed, err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	envelope := make([]byte, IVSize+len(padded))

	iv := envelope[:IVSize]
	if _, err := io.ReadFull(random, iv); err != nil {
		return nil, fmt.Errorf("%w: reading IV: %v", kerrors.ErrEncryptFailed, err)
	}

	cipher.NewCBCEncrypter(block, iv).CryptBlocks(envelope[IVSize:], padded)
	return envelope, nil
}

// Decrypt opens an envelope produced by Encrypt. Every failure is reported as
// ErrDecryptFailed.
func Decrypt(envelope []byte, secret string) ([]byte, error) {
	if len(envelope) < IVSize {
		return nil, kerrors.ErrDecryptFailed
	}

	iv := envelope[:IVSize]
	ciphertext := envelope[IVSize:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, kerrors.ErrDecryptFailed
	}

	block, err := newBlock(secret)
	if err != nil {
		return nil, kerrors.ErrDecryptFailed
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, ok := pkcs7Unpad(plaintext, aes.BlockSize)
	if !ok {
		return nil, kerrors.ErrDecryptFailed
	}
	return unpadded, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, false
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, false
		}
	}
	return data[:len(data)-padding], true
}
