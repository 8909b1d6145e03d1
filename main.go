package main

import (
	"cogito/cogbase"
	"cogito/fchat/api"
	"cogito/fchat/session"
	"cogito/logger"
	"cogito/modlog"
	"cogito/settings"
	"cogito/telemetry"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "config.toml", "path to the configuration file")
	showVersion := pflag.BoolP("version", "v", false, "print the version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println("cogito", session.Version)
		return
	}

	config, err := settings.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", "path", *configPath, "error", err)
	}
	logger.Init(config.Logging)

	if err := run(config); err != nil {
		logger.Fatal("Stopped with an error", "error", err)
	}
	logger.Info("Goodbye")
}

func run(config *settings.Config) error {
	logger.Info("Starting cogito", "version", session.Version, "character", config.Fchat.Character)

	store, err := cogbase.Open(config.Storage.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close the store", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetry.Init()
	if config.Metrics.Enabled {
		go func() {
			if err := telemetry.Serve(ctx, config.Metrics.Listen); err != nil {
				logger.Error("Metrics listener stopped", "error", err)
			}
		}()
	}

	logs := modlog.New(config.Moderation.LogPath)
	logger.OnFatal(logs.Close)

	s := session.New(session.Options{
		Config: config,
		API:    api.New(config.Fchat, &http.Client{Timeout: 30 * time.Second}),
		Store:  store,
		ModLog: logs,
	})
	return s.Run(ctx)
}
