package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/kingpin/v2"

	"github.com/pngcrypt-go/internal/container"
	"github.com/pngcrypt-go/internal/encryption"
)

var (
	infoCommand = app.Command("info", "Show the header of an EPNG container")
	infoFile    = infoCommand.Arg("file", "container file").Required().ExistingFile()

	algorithmsCommand = app.Command("algorithms", "List supported algorithms").Alias("algs")
)

func init() {
	infoCommand.Action(func(*kingpin.ParseContext) error {
		return printInfo(os.Stdout, *infoFile)
	})
	algorithmsCommand.Action(func(*kingpin.ParseContext) error {
		return printAlgorithms(os.Stdout)
	})
}

func printInfo(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	hdr, err := container.PeekHeader(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(w, "file:      %s\n", path)
	fmt.Fprintf(w, "version:   %d\n", hdr.Version)
	fmt.Fprintf(w, "algorithm: %s\n", hdr.AlgorithmName())
	if !encryption.IsRegistered(hdr.AlgorithmName()) {
		fmt.Fprintln(w, "warning:   algorithm not supported by this build")
	}
	return nil
}

func printAlgorithms(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tBLOCK\tKEY")
	for _, alg := range encryption.ListRegistered() {
		c, err := encryption.NewBlockCipher(alg)
		if err != nil {
			return err
		}
		marker := ""
		if alg == encryption.DefaultAlgorithm {
			marker = " (default)"
		}
		fmt.Fprintf(tw, "%s%s\t%d\t%d\n", alg, marker, c.BlockSize(), c.KeySize())
	}
	return tw.Flush()
}
