package encryption

// PaddedLen returns n rounded up to the next multiple of blockSize.
func PaddedLen(n, blockSize int) int {
	if rem := n % blockSize; rem != 0 {
		return n + blockSize - rem
	}
	return n
}

// EncryptBlock encrypts data in place with a block cipher that only accepts
// block-aligned input. data may have any non-zero length: a zero-filled,
// block-aligned working copy is encrypted and the result is truncated back
// to len(data).
//
// The original length is not recoverable from the output. Whoever decrypts
// must know len(data) independently, so that both sides compute the same
// padded length.
func EncryptBlock(data []byte, c BlockCipher, key []byte) error {
	return transformBlock(data, key, c.BlockSize(), c.EncryptBlocks)
}

// DecryptBlock reverses EncryptBlock. data must have the same length as
// the plaintext that produced it.
func DecryptBlock(data []byte, c BlockCipher, key []byte) error {
	return transformBlock(data, key, c.BlockSize(), c.DecryptBlocks)
}

func transformBlock(data, key []byte, blockSize int, crypt func(buf, key []byte) error) error {
	if len(data) == 0 {
		return ErrEmptyBlock
	}

	buf := make([]byte, PaddedLen(len(data), blockSize))
	n := copy(buf, data)
	// filler is zero on both sides
	clear(buf[n:])

	if err := crypt(buf, key); err != nil {
		return err
	}

	copy(data, buf[:n])
	return nil
}
