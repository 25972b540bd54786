package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"github.com/rs/zerolog/log"

	"github.com/pngcrypt-go/internal/container"
	"github.com/pngcrypt-go/internal/encryption"
)

var (
	encryptCommand   = app.Command("encrypt", "Encrypt a PNG image into an EPNG container")
	encryptIn        = encryptCommand.Flag("in", "input PNG file, - for stdin").Short('i').Required().String()
	encryptOut       = encryptCommand.Flag("out", "output container file, - for stdout").Short('o').Required().String()
	encryptAlgorithm = encryptCommand.Flag("algorithm", "cipher algorithm").Short('a').Default(string(encryption.DefaultAlgorithm)).String()
	encryptPassword  = encryptCommand.Flag("password", "encryption password").Envar("PNGCRYPT_PASSWORD").Required().String()

	decryptCommand   = app.Command("decrypt", "Decrypt an EPNG container into a PNG image")
	decryptIn        = decryptCommand.Flag("in", "input container file, - for stdin").Short('i').Required().String()
	decryptOut       = decryptCommand.Flag("out", "output PNG file, - for stdout").Short('o').Required().String()
	decryptAlgorithm = decryptCommand.Flag("algorithm", "cipher algorithm, read from the container when empty").Short('a').String()
	decryptPassword  = decryptCommand.Flag("password", "encryption password").Envar("PNGCRYPT_PASSWORD").Required().String()
)

func init() {
	encryptCommand.Action(func(*kingpin.ParseContext) error {
		return transformFile(context.Background(), *encryptIn, *encryptOut, encryption.Algorithm(*encryptAlgorithm), *encryptPassword, false)
	})
	decryptCommand.Action(func(*kingpin.ParseContext) error {
		return transformFile(context.Background(), *decryptIn, *decryptOut, encryption.Algorithm(*decryptAlgorithm), *decryptPassword, true)
	})
}

// transformFile runs the container codec from inPath to outPath. A failed
// run removes the partial output file.
func transformFile(ctx context.Context, inPath, outPath string, alg encryption.Algorithm, password string, decrypt bool) (err error) {
	in, err := openInput(inPath)
	if err != nil {
		return err
	}
	defer in.Close()
	br := bufio.NewReader(in)

	if decrypt && alg == "" {
		hdr, err := container.PeekHeader(br)
		if err != nil {
			return fmt.Errorf("%s: %w", inPath, err)
		}
		alg = hdr.AlgorithmName()
	}

	codec, err := encryption.NewCodec(password, alg)
	if err != nil {
		return err
	}

	out, err := createOutput(outPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil && outPath != "-" {
			os.Remove(outPath)
		}
	}()

	w := bufio.NewWriter(out)
	var stats container.Stats
	if decrypt {
		stats, err = container.Decrypt(ctx, w, br, codec)
	} else {
		stats, err = container.Encrypt(ctx, w, br, codec)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", inPath, err)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	log.Info().
		Str("in", inPath).
		Str("out", outPath).
		Str("algorithm", string(stats.Algorithm)).
		Int("chunks", stats.Chunks).
		Int64("bytes", stats.Bytes).
		Msg("done")
	return nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func createOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}
