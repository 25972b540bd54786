package encryption

import (
	"bytes"
	"errors"
	"testing"
)

// FuzzBlockRoundTrip fuzzes the padded transform across algorithms
func FuzzBlockRoundTrip(f *testing.F) {
	// Seed corpus
	f.Add([]byte("Hello, World!"), "password123", uint8(0))
	f.Add([]byte(""), "pass", uint8(1))
	f.Add([]byte{0, 1, 2, 3, 4, 5}, "testpass", uint8(4))
	f.Add(make([]byte, 1024), "longpasswordhere", uint8(8))

	algs := ListRegistered()

	f.Fuzz(func(t *testing.T, data []byte, password string, which uint8) {
		alg := algs[int(which)%len(algs)]
		codec, err := NewCodec(password, alg)
		if err != nil {
			t.Fatalf("NewCodec(%s): %v", alg, err)
		}

		buf := append([]byte(nil), data...)
		err = codec.Encrypt(buf)
		if len(data) == 0 {
			if !errors.Is(err, ErrEmptyBlock) {
				t.Errorf("%s: empty input error = %v", alg, err)
			}
			return
		}
		if err != nil {
			t.Fatalf("%s: encrypt: %v", alg, err)
		}
		if len(buf) != len(data) {
			t.Fatalf("%s: length %d, want %d", alg, len(buf), len(data))
		}

		if err := codec.Decrypt(buf); err != nil {
			t.Fatalf("%s: decrypt: %v", alg, err)
		}
		if !bytes.Equal(buf, data) {
			t.Errorf("%s: round-trip failed for data len %d", alg, len(data))
		}
	})
}

// FuzzPaddedLen checks alignment and minimality of PaddedLen
func FuzzPaddedLen(f *testing.F) {
	f.Add(20, 16)
	f.Add(16, 16)
	f.Add(1, 64)

	f.Fuzz(func(t *testing.T, n, blockSize int) {
		if n <= 0 || blockSize <= 0 || n > 1<<30 || blockSize > 1<<12 {
			return
		}
		p := PaddedLen(n, blockSize)
		if p%blockSize != 0 || p < n || p-n >= blockSize {
			t.Errorf("PaddedLen(%d, %d) = %d", n, blockSize, p)
		}
		if n%blockSize == 0 && p != n {
			t.Errorf("aligned PaddedLen(%d, %d) = %d", n, blockSize, p)
		}
	})
}
