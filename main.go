package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brettboylen/reddit-feeds/api"
	"github.com/brettboylen/reddit-feeds/collector"
	"github.com/brettboylen/reddit-feeds/db"
	"github.com/brettboylen/reddit-feeds/normalizer"
	"github.com/brettboylen/reddit-feeds/utils"
)

// main performs one pass over the active connections and exits.
// Failures are only reported through the log file; the exit code is always 0.
func main() {
	config, err := utils.LoadConfig(utils.EnvPath())
	if err != nil {
		// the log destination is part of the config, so report on stderr
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return
	}

	log := utils.SetupLogger(config.Log)
	log.WithFields(logrus.Fields{
		"app":        config.App.Name,
		"version":    config.App.Version,
		"database":   config.Database.Name,
		"collection": config.Database.Collection,
	}).Info("Starting reddit feeds run")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run(ctx, config, log)
}

func run(ctx context.Context, config *utils.Config, log *logrus.Logger) {
	registry, err := db.OpenRegistry(config.Database.ConnectionsDB, log)
	if err != nil {
		log.WithError(err).Error("Failed to open connection registry")
		return
	}
	defer registry.Close()

	store, err := db.OpenDocumentStore(ctx, config.Database.URI, config.Database.Name, config.Database.Collection)
	if err != nil {
		log.WithError(err).Error("Failed to connect to document store")
		return
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.WithError(err).Error("Failed to close document store")
		}
	}()

	writer := db.NewWriter(store, log)
	if err := writer.Prepare(ctx); err != nil {
		log.WithError(err).Error("Failed to ensure link_hash index")
		return
	}

	redditAPI := api.NewRedditAPI(
		api.Credentials{
			ClientID:     config.Reddit.ClientID,
			ClientSecret: config.Reddit.ClientSecret,
			Username:     config.Reddit.Username,
			Password:     config.Reddit.Password,
			UserAgent:    config.Reddit.UserAgent,
		},
		config.Reddit.TokenURL,
		config.Reddit.APIBase,
		config.Reddit.HTTPTimeout,
		log,
	)

	c := collector.NewCollector(registry, redditAPI, normalizer.New(nil), writer, log)

	// errors are already logged by the collector
	c.Run(ctx)
}
