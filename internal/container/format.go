// Package container converts PNG images to and from the EPNG format: the
// PNG chunk sequence with every chunk payload passed through the padded
// block transform.
//
// Layout, all integers big-endian:
//
//	FileHeader                      24 bytes
//	{ ChunkHeader | data | CRC }... until the IEND chunk
//
// ChunkHeader carries the plaintext length of the payload. The transform
// does not change lengths, so the same value is the ciphertext length and
// is what the decrypting side pads from.
package container

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pngcrypt-go/internal/encryption"
	"github.com/pngcrypt-go/internal/stream"
)

const (
	// Version is the only container version written and accepted
	Version = 1

	// MaxChunkSize bounds the payload of a single chunk
	MaxChunkSize = 64 << 20

	algorithmFieldSize = 16

	// HeaderSize is the encoded size of FileHeader
	HeaderSize = 24
)

var (
	// Magic starts every container
	Magic = [4]byte{'E', 'P', 'N', 'G'}

	// PNGSignature starts every PNG file
	PNGSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

	chunkIEND = [4]byte{'I', 'E', 'N', 'D'}
)

var (
	ErrNotPNG             = errors.New("container: input is not a PNG image")
	ErrNotContainer       = errors.New("container: input is not an EPNG container")
	ErrUnsupportedVersion = errors.New("container: unsupported version")
	ErrAlgorithmMismatch  = errors.New("container: algorithm mismatch")
	ErrBadCRC             = errors.New("container: chunk CRC mismatch")
	ErrChunkTooLarge      = errors.New("container: chunk too large")
	ErrTruncated          = errors.New("container: missing IEND chunk")
)

// FileHeader is the fixed-layout container header
type FileHeader struct {
	Magic     [4]byte
	Version   uint8
	Flags     uint8
	Algorithm [algorithmFieldSize]byte
	Reserved  [2]byte
}

// AlgorithmName returns the algorithm stored in the header
func (h *FileHeader) AlgorithmName() encryption.Algorithm {
	return encryption.Algorithm(bytes.TrimRight(h.Algorithm[:], "\x00"))
}

func newFileHeader(alg encryption.Algorithm) (*FileHeader, error) {
	if len(alg) > algorithmFieldSize {
		return nil, fmt.Errorf("container: algorithm name %q longer than %d bytes", alg, algorithmFieldSize)
	}
	h := &FileHeader{Magic: Magic, Version: Version}
	copy(h.Algorithm[:], alg)
	return h, nil
}

// ChunkHeader precedes every chunk payload. It has the same layout as a
// PNG chunk header.
type ChunkHeader struct {
	Length uint32
	Type   [4]byte
}

// Stats summarises one conversion
type Stats struct {
	Algorithm encryption.Algorithm `json:"algorithm"`
	Chunks    int                  `json:"chunks"`
	Bytes     int64                `json:"bytes"`
}

// ReadHeader reads and validates a container header
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var h FileHeader
	if err := stream.ReadRecord(r, &h); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrNotContainer
		}
		return nil, err
	}
	if h.Magic != Magic {
		return nil, ErrNotContainer
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	return &h, nil
}

// PeekHeader decodes the container header at the front of br without
// consuming it, so the same reader can then be passed to Decrypt.
func PeekHeader(br *bufio.Reader) (*FileHeader, error) {
	head, err := br.Peek(HeaderSize)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNotContainer
		}
		return nil, err
	}
	return ReadHeader(bytes.NewReader(head))
}

// readChunk reads one chunk: header, payload and trailing CRC
func readChunk(r io.Reader) (ChunkHeader, []byte, uint32, error) {
	var hdr ChunkHeader
	if err := stream.ReadRecord(r, &hdr); err != nil {
		if errors.Is(err, io.EOF) {
			return hdr, nil, 0, ErrTruncated
		}
		return hdr, nil, 0, err
	}
	if hdr.Length > MaxChunkSize {
		return hdr, nil, 0, fmt.Errorf("%w: %s is %d bytes", ErrChunkTooLarge, hdr.Type[:], hdr.Length)
	}

	data, err := stream.ReadExact(r, int(hdr.Length))
	if err != nil {
		return hdr, nil, 0, unexpectedEOF(err)
	}

	var crc uint32
	if err := stream.ReadRecord(r, &crc); err != nil {
		return hdr, nil, 0, unexpectedEOF(err)
	}
	return hdr, data, crc, nil
}

func writeChunk(w io.Writer, hdr ChunkHeader, data []byte, crc uint32) error {
	if err := stream.WriteRecord(w, &hdr); err != nil {
		return err
	}
	if len(data) > 0 {
		if err := stream.Copy(w, data); err != nil {
			return err
		}
	}
	return stream.WriteRecord(w, crc)
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
