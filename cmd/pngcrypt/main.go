/*
Command-line tool for encrypting PNG images into EPNG containers and back.

Usage:

	$ pngcrypt [<flags>] <subcommand> [<args> ...]

Use 'pngcrypt help' to see more details.
*/
package main

import (
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/pngcrypt-go/internal/config"
	"github.com/pngcrypt-go/internal/logging"
)

var (
	app = kingpin.New("pngcrypt", "Encrypt PNG images chunk by chunk.")

	logLevel  = app.Flag("log-level", "log level").Default("info").Enum("debug", "info", "warning", "error")
	logFormat = app.Flag("log-format", "log output format").Default("console").Enum("console", "json")
)

func initializeLogging(ctx *kingpin.ParseContext) error {
	logging.Setup(*logLevel, *logFormat, os.Stderr)
	return nil
}

func main() {
	app.Version(config.Version)
	app.PreAction(initializeLogging)
	kingpin.MustParse(app.Parse(os.Args[1:]))
}
