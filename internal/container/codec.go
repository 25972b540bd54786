package container

import (
	"bytes"
	"context"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/pngcrypt-go/internal/encryption"
	"github.com/pngcrypt-go/internal/stream"
)

// Encrypt reads a PNG image from src and writes its EPNG container to dst.
// Chunk i is encrypted with codec.Sub(i). Empty chunks are copied as is.
func Encrypt(ctx context.Context, dst io.Writer, src io.Reader, codec *encryption.Codec) (Stats, error) {
	stats := Stats{Algorithm: codec.Algorithm()}

	sig, err := stream.ReadExact(src, len(PNGSignature))
	if err != nil || !bytes.Equal(sig, PNGSignature) {
		return stats, ErrNotPNG
	}

	hdr, err := newFileHeader(codec.Algorithm())
	if err != nil {
		return stats, err
	}
	if err := stream.WriteRecord(dst, hdr); err != nil {
		return stats, err
	}

	for index := uint32(0); ; index++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		chunk, data, crc, err := readChunk(src)
		if err != nil {
			return stats, fmt.Errorf("chunk %d: %w", index, err)
		}
		if chunkCRC(chunk.Type, data) != crc {
			return stats, fmt.Errorf("chunk %d (%s): %w", index, chunk.Type[:], ErrBadCRC)
		}

		if len(data) > 0 {
			if err := codec.Sub(index).Encrypt(data); err != nil {
				return stats, fmt.Errorf("chunk %d (%s): %w", index, chunk.Type[:], err)
			}
		}
		if err := writeChunk(dst, chunk, data, crc); err != nil {
			return stats, err
		}

		stats.Chunks++
		stats.Bytes += int64(len(data))
		if chunk.Type == chunkIEND {
			break
		}
	}

	log.Debug().
		Str("algorithm", string(stats.Algorithm)).
		Int("chunks", stats.Chunks).
		Int64("bytes", stats.Bytes).
		Msg("PNG encrypted")
	return stats, nil
}

// Decrypt reads an EPNG container from src and writes the PNG image to dst.
// The container must have been written with codec's algorithm. A wrong
// password shows up as ErrBadCRC on the first non-empty chunk.
func Decrypt(ctx context.Context, dst io.Writer, src io.Reader, codec *encryption.Codec) (Stats, error) {
	stats := Stats{Algorithm: codec.Algorithm()}

	hdr, err := ReadHeader(src)
	if err != nil {
		return stats, err
	}
	if hdr.AlgorithmName() != codec.Algorithm() {
		return stats, fmt.Errorf("%w: container uses %s, codec uses %s", ErrAlgorithmMismatch, hdr.AlgorithmName(), codec.Algorithm())
	}

	if err := stream.Copy(dst, PNGSignature); err != nil {
		return stats, err
	}

	for index := uint32(0); ; index++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		chunk, data, crc, err := readChunk(src)
		if err != nil {
			return stats, fmt.Errorf("chunk %d: %w", index, err)
		}

		if len(data) > 0 {
			if err := codec.Sub(index).Decrypt(data); err != nil {
				return stats, fmt.Errorf("chunk %d (%s): %w", index, chunk.Type[:], err)
			}
		}
		if chunkCRC(chunk.Type, data) != crc {
			return stats, fmt.Errorf("chunk %d (%s): %w", index, chunk.Type[:], ErrBadCRC)
		}
		if err := writeChunk(dst, chunk, data, crc); err != nil {
			return stats, err
		}

		stats.Chunks++
		stats.Bytes += int64(len(data))
		if chunk.Type == chunkIEND {
			break
		}
	}

	log.Debug().
		Str("algorithm", string(stats.Algorithm)).
		Int("chunks", stats.Chunks).
		Int64("bytes", stats.Bytes).
		Msg("PNG decrypted")
	return stats, nil
}

// chunkCRC computes the PNG CRC over chunk type and payload
func chunkCRC(typ [4]byte, data []byte) uint32 {
	crc := crc32.NewIEEE()
	crc.Write(typ[:])
	crc.Write(data)
	return crc.Sum32()
}
