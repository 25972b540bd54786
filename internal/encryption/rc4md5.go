package encryption

import (
	"crypto/md5"
	"crypto/rc4"
	"fmt"
)

// rc4md5Alignment is the buffer alignment RC4MD5 asks for. RC4 itself has
// no block structure.
const rc4md5Alignment = 16

// RC4MD5 runs RC4 keyed with MD5(key). It is kept for interoperability
// with existing containers; prefer the AES or ChaCha20 algorithms.
type RC4MD5 struct{}

// NewRC4MD5 creates a new RC4-MD5 cipher instance
func NewRC4MD5() *RC4MD5 {
	return &RC4MD5{}
}

// Algorithm returns the cipher algorithm name
func (r *RC4MD5) Algorithm() string {
	return string(AlgRC4MD5)
}

// BlockSize returns the required buffer alignment
func (r *RC4MD5) BlockSize() int {
	return rc4md5Alignment
}

// KeySize returns the key length in bytes
func (r *RC4MD5) KeySize() int {
	return md5.Size
}

// EncryptBlocks encrypts buf in place
func (r *RC4MD5) EncryptBlocks(buf, key []byte) error {
	if len(buf)%rc4md5Alignment != 0 {
		return fmt.Errorf("%w: %d bytes, block size %d", ErrNotAligned, len(buf), rc4md5Alignment)
	}
	if len(key) != md5.Size {
		return &KeySizeError{Algorithm: r.Algorithm(), Got: len(key), Want: md5.Size}
	}

	keyHash := md5.Sum(key)
	c, err := rc4.NewCipher(keyHash[:])
	if err != nil {
		return fmt.Errorf("failed to create RC4 cipher: %w", err)
	}
	c.XORKeyStream(buf, buf)
	return nil
}

// DecryptBlocks decrypts buf in place (same as encrypt for RC4)
func (r *RC4MD5) DecryptBlocks(buf, key []byte) error {
	return r.EncryptBlocks(buf, key)
}
