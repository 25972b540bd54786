package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"fmt"
)

// AESCTR runs AES-128 in CTR mode over 16-byte aligned buffers. The
// counter starts at MD5(key), so a key always maps to one keystream.
type AESCTR struct{}

// NewAESCTR creates a new AES-CTR cipher instance
func NewAESCTR() *AESCTR {
	return &AESCTR{}
}

// Algorithm returns the cipher algorithm name
func (a *AESCTR) Algorithm() string {
	return string(AlgAESCTR)
}

// BlockSize returns the cipher block size
func (a *AESCTR) BlockSize() int {
	return aes.BlockSize
}

// KeySize returns the key length in bytes
func (a *AESCTR) KeySize() int {
	return 16
}

// EncryptBlocks encrypts buf in place
func (a *AESCTR) EncryptBlocks(buf, key []byte) error {
	if len(buf)%aes.BlockSize != 0 {
		return fmt.Errorf("%w: %d bytes, block size %d", ErrNotAligned, len(buf), aes.BlockSize)
	}
	if len(key) != a.KeySize() {
		return &KeySizeError{Algorithm: a.Algorithm(), Got: len(key), Want: a.KeySize()}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("failed to create AES cipher: %w", err)
	}
	iv := md5.Sum(key)
	cipher.NewCTR(block, iv[:]).XORKeyStream(buf, buf)
	return nil
}

// DecryptBlocks decrypts buf in place (same as encrypt for CTR mode)
func (a *AESCTR) DecryptBlocks(buf, key []byte) error {
	return a.EncryptBlocks(buf, key)
}
