// Command server exposes the PNG transform over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pngcrypt-go/internal/config"
	"github.com/pngcrypt-go/internal/logging"
	"github.com/pngcrypt-go/internal/server"
)

const shutdownTimeout = 30 * time.Second

var (
	app = kingpin.New("pngcrypt-server", "HTTP service for PNG chunk encryption.")

	configFile = app.Flag("config", "path to a config file; searched in ., ./configs and ~/.pngcrypt when empty").Short('c').String()
	dataDir    = app.Flag("data-dir", "override data_dir").String()
	httpPort   = app.Flag("http-port", "override server.http_port").Int()
)

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if *configFile != "" {
		c, err := config.LoadFile(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = config.Load()
	}

	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *httpPort > 0 {
		cfg.Server.HTTPPort = *httpPort
	}
	return cfg, nil
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info().
		Str("version", config.Version).
		Str("http_addr", cfg.GetHTTPAddr()).
		Bool("h2c", cfg.Server.EnableH2C).
		Bool("https", cfg.IsHTTPSEnabled()).
		Str("algorithm", string(cfg.Algorithm())).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting pngcrypt server")

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		srv.Shutdown(context.Background())
		return err
	case sig := <-sigc:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func main() {
	app.Version(config.Version)
	app.HelpFlag.Short('h')
	kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}
