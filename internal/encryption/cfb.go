package encryption

import (
	"crypto/cipher"
	"fmt"
)

// BlockFactory builds a cipher.Block from a key, e.g. aes.NewCipher.
type BlockFactory func(key []byte) (cipher.Block, error)

// CFB runs a cipher.Block in full-block CFB mode over block-aligned
// buffers. The IV is the encryption of the all-zero block under the key,
// so the same key always yields the same ciphertext for the same input.
type CFB struct {
	algorithm string
	keySize   int
	blockSize int
	newBlock  BlockFactory
}

// NewCFB creates a CFB cipher for the given algorithm.
func NewCFB(algorithm string, keySize, blockSize int, newBlock BlockFactory) *CFB {
	return &CFB{
		algorithm: algorithm,
		keySize:   keySize,
		blockSize: blockSize,
		newBlock:  newBlock,
	}
}

// Algorithm returns the cipher algorithm name
func (c *CFB) Algorithm() string {
	return c.algorithm
}

// BlockSize returns the cipher block size
func (c *CFB) BlockSize() int {
	return c.blockSize
}

// KeySize returns the key length in bytes
func (c *CFB) KeySize() int {
	return c.keySize
}

// EncryptBlocks encrypts buf in place
func (c *CFB) EncryptBlocks(buf, key []byte) error {
	block, iv, err := c.setup(buf, key)
	if err != nil {
		return err
	}
	cipher.NewCFBEncrypter(block, iv).XORKeyStream(buf, buf)
	return nil
}

// DecryptBlocks decrypts buf in place
func (c *CFB) DecryptBlocks(buf, key []byte) error {
	block, iv, err := c.setup(buf, key)
	if err != nil {
		return err
	}
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(buf, buf)
	return nil
}

func (c *CFB) setup(buf, key []byte) (cipher.Block, []byte, error) {
	if len(buf)%c.blockSize != 0 {
		return nil, nil, fmt.Errorf("%w: %d bytes, block size %d", ErrNotAligned, len(buf), c.blockSize)
	}
	if len(key) != c.keySize {
		return nil, nil, &KeySizeError{Algorithm: c.algorithm, Got: len(key), Want: c.keySize}
	}

	block, err := c.newBlock(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s cipher: %w", c.algorithm, err)
	}
	if block.BlockSize() != c.blockSize {
		return nil, nil, fmt.Errorf("%s: block size %d, registered as %d", c.algorithm, block.BlockSize(), c.blockSize)
	}

	iv := make([]byte, c.blockSize)
	block.Encrypt(iv, iv)
	return block, iv, nil
}
