// Package stream holds the small byte-stream helpers the container codec
// is built from: exact reads, fixed-layout records and bounded copies.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrEmptyCopy is returned when Copy is asked to write nothing
var ErrEmptyCopy = errors.New("stream: empty copy")

// ReadExact reads exactly n bytes from r. A stream that ends early yields
// io.ErrUnexpectedEOF, or io.EOF if nothing at all was read.
func ReadExact(r io.Reader, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("stream: negative read size %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadRecord decodes a fixed-layout big-endian record into v, which must
// be a pointer to a fixed-size value (see encoding/binary).
func ReadRecord(r io.Reader, v any) error {
	return binary.Read(r, binary.BigEndian, v)
}

// WriteRecord encodes a fixed-layout record in big-endian order.
func WriteRecord(w io.Writer, v any) error {
	return binary.Write(w, binary.BigEndian, v)
}

// Copy writes all of data to w.
func Copy(w io.Writer, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyCopy
	}
	n, err := w.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return io.ErrShortWrite
	}
	return nil
}

// Move reads exactly n bytes from r and writes them to w.
func Move(w io.Writer, r io.Reader, n int) error {
	buf, err := ReadExact(r, n)
	if err != nil {
		return err
	}
	return Copy(w, buf)
}
