package encryption

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// pbkdf2Iterations is part of the container format; changing it breaks
// existing files
const pbkdf2Iterations = 1000

// Codec binds a block cipher to a key and applies the padded transform
type Codec struct {
	cipher FullCipher
	key    []byte
}

// NewCodec creates a Codec whose key is derived from password
func NewCodec(password string, alg Algorithm) (*Codec, error) {
	c, err := NewBlockCipher(alg)
	if err != nil {
		return nil, err
	}
	return &Codec{
		cipher: c,
		key:    deriveKey(password, c),
	}, nil
}

// NewCodecWithKey creates a Codec from raw key material
func NewCodecWithKey(alg Algorithm, key []byte) (*Codec, error) {
	c, err := NewBlockCipher(alg)
	if err != nil {
		return nil, err
	}
	if len(key) != c.KeySize() {
		return nil, &KeySizeError{Algorithm: c.Algorithm(), Got: len(key), Want: c.KeySize()}
	}
	return &Codec{
		cipher: c,
		key:    append([]byte(nil), key...),
	}, nil
}

// DeriveKey derives a key of the algorithm's key size from a password
func DeriveKey(password string, alg Algorithm) ([]byte, error) {
	c, err := NewBlockCipher(alg)
	if err != nil {
		return nil, err
	}
	return deriveKey(password, c), nil
}

func deriveKey(password string, c FullCipher) []byte {
	return pbkdf2.Key([]byte(password), []byte(c.Algorithm()), pbkdf2Iterations, c.KeySize(), sha256.New)
}

// Sub returns a Codec keyed with SHA-256(key || index), truncated to the
// key size. Containers use one per chunk so that no two chunks share a
// keystream.
func (c *Codec) Sub(index uint32) *Codec {
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], index)

	h := sha256.New()
	h.Write(c.key)
	h.Write(idx[:])
	sum := h.Sum(nil)

	return &Codec{
		cipher: c.cipher,
		key:    sum[:c.cipher.KeySize()],
	}
}

// Encrypt encrypts data in place, len(data) is preserved
func (c *Codec) Encrypt(data []byte) error {
	if err := EncryptBlock(data, c.cipher, c.key); err != nil {
		return fmt.Errorf("%s encrypt: %w", c.cipher.Algorithm(), err)
	}
	return nil
}

// Decrypt decrypts data in place, len(data) is preserved
func (c *Codec) Decrypt(data []byte) error {
	if err := DecryptBlock(data, c.cipher, c.key); err != nil {
		return fmt.Errorf("%s decrypt: %w", c.cipher.Algorithm(), err)
	}
	return nil
}

// Algorithm returns the algorithm name
func (c *Codec) Algorithm() Algorithm {
	return Algorithm(c.cipher.Algorithm())
}

// BlockSize returns the cipher block size
func (c *Codec) BlockSize() int {
	return c.cipher.BlockSize()
}
