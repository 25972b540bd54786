package encryption

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBlock is returned when the padded transform is asked to
	// process a zero-length buffer. Callers must never do that.
	ErrEmptyBlock = errors.New("encryption: empty block")

	// ErrNotAligned is returned by a BlockCipher given a buffer whose length
	// is not a multiple of its block size.
	ErrNotAligned = errors.New("encryption: buffer is not block aligned")
)

// BlockCipher encrypts and decrypts block-aligned buffers in place.
//
// Implementations must be prefix stable: byte i of the output may depend
// only on bytes 0..i of the input. The padded transform throws away the
// ciphertext of the filler bytes and re-pads with zeros on decrypt, so a
// mode where the last partial block needs its full ciphertext (ECB, CBC)
// cannot round-trip lengths that are not block aligned.
type BlockCipher interface {
	// BlockSize returns the cipher block size in bytes
	BlockSize() int
	// EncryptBlocks encrypts buf in place, len(buf) must be a multiple of BlockSize
	EncryptBlocks(buf, key []byte) error
	// DecryptBlocks decrypts buf in place, len(buf) must be a multiple of BlockSize
	DecryptBlocks(buf, key []byte) error
}

// CipherInfo provides metadata about a cipher
type CipherInfo interface {
	// Algorithm returns the cipher algorithm name
	Algorithm() string
	// KeySize returns the required key length in bytes
	KeySize() int
}

// FullCipher combines all cipher capabilities
type FullCipher interface {
	BlockCipher
	CipherInfo
}

// KeySizeError reports a key of the wrong length for an algorithm.
type KeySizeError struct {
	Algorithm string
	Got       int
	Want      int
}

func (e *KeySizeError) Error() string {
	return fmt.Sprintf("encryption: %s needs a %d byte key, got %d", e.Algorithm, e.Want, e.Got)
}
