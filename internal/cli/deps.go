package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trofimovelijah/SuprematistArticleFinder/internal/backend"
	"github.com/trofimovelijah/SuprematistArticleFinder/internal/config"
	"github.com/trofimovelijah/SuprematistArticleFinder/internal/logger"
	"github.com/trofimovelijah/SuprematistArticleFinder/internal/session"
	"github.com/trofimovelijah/SuprematistArticleFinder/internal/telemetry"
)

// newSession wires config, logging, telemetry, the backend client and a
// fresh session together. Config cascade for the API URL: flag → env →
// default. The returned cleanup flushes telemetry and the log file.
func newSession(cmd *cobra.Command, loading func(bool)) (*session.Session, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	apiURL := cfg.APIURL
	if cmd != nil {
		if flagURL, err := cmd.Flags().GetString("api-url"); err == nil && flagURL != "" {
			apiURL = flagURL
		}
	}

	log := logger.New(cfg.LogFile, cfg.Debug)

	shutdown, err := telemetry.Init(telemetry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Debug:       cfg.Debug,
	})
	if err != nil {
		log.Warn("telemetry init failed", zap.Error(err))
		shutdown = func() {}
	}

	client := backend.New(apiURL, cfg.HTTPTimeout, log)

	opts := []session.Option{
		session.WithPageSize(cfg.PageSize),
		session.WithLogger(log),
	}
	if loading != nil {
		opts = append(opts, session.WithLoadingFunc(loading))
	}

	cleanup := func() {
		shutdown()
		_ = log.Sync()
	}
	return session.New(client, opts...), cleanup, nil
}
