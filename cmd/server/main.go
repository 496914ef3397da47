// Copyright 2025 Kisan Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main runs the Kisan Assistant HTTP service: a multilingual
// agricultural assistant backend for Indian farmers.
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/your-org/kisan-assistant/internal/assembler"
	"github.com/your-org/kisan-assistant/internal/cache"
	"github.com/your-org/kisan-assistant/internal/config"
	"github.com/your-org/kisan-assistant/internal/health"
	"github.com/your-org/kisan-assistant/internal/intent"
	"github.com/your-org/kisan-assistant/internal/llm"
	"github.com/your-org/kisan-assistant/internal/market"
	"github.com/your-org/kisan-assistant/internal/news"
	"github.com/your-org/kisan-assistant/internal/server"
	"github.com/your-org/kisan-assistant/internal/session"
	"github.com/your-org/kisan-assistant/internal/weather"
)

const serviceVersion = "1.0.0"

// maintenanceInterval paces session pruning and cache expiry sweeps.
const maintenanceInterval = time.Hour

func main() {
	var configPath string
	var port string

	rootCmd := &cobra.Command{
		Use:   "kisan-assistant",
		Short: "Agricultural assistant backend for Indian farmers",
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(configPath, port)
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "./configs/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides configuration)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the service version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(serviceVersion)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath, portOverride string) error {
	// Local development keeps API keys in a .env file; its absence is fine.
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		return err
	}
	if portOverride != "" {
		cfg.Server.Port = portOverride
	}

	diskCache, err := cache.NewSQLite(cfg.Cache.DBPath, logger)
	if err != nil {
		logger.Error("failed to open cache database", zap.Error(err))
		return err
	}
	defer func() { _ = diskCache.Close() }()

	weatherClient := weather.NewClient(cfg.Weather, logger)
	marketClient := market.NewClient(cfg.Market, diskCache, logger)
	newsClient := news.NewClient(time.Duration(cfg.News.CacheTTLMinutes)*time.Minute, logger)
	analyzer := intent.NewAnalyzer(logger)

	sessions := session.NewMemoryStore(session.MemoryStoreOptions{
		MaxTurns:     cfg.Session.MaxTurns,
		ContextTurns: cfg.Session.ContextTurns,
		MaxSessions:  cfg.Session.MaxSessions,
	})

	completer, err := llm.NewClient(cfg.LLM, logger)
	if err != nil {
		if !errors.Is(err, llm.ErrMissingAPIKey) {
			logger.Error("failed to initialize model client", zap.Error(err))
			return err
		}
		// The service still serves debug, news, and reference endpoints;
		// chat endpoints answer 400 until a key is configured.
		logger.Warn("no LLM API key configured, chat endpoints will reject requests")
	}

	healthManager := health.NewManager("kisan-assistant", serviceVersion, logger)
	healthManager.AddChecker("openweather", health.UpstreamChecker(cfg.Weather.BaseURL, &http.Client{Timeout: health.DefaultTimeout}))
	healthManager.AddChecker("datagov", health.UpstreamChecker(cfg.Market.BaseURL, &http.Client{Timeout: health.DefaultTimeout}))
	healthManager.AddChecker("cache", health.PingChecker("sqlite", diskCache.Ping))

	go runMaintenance(sessions, diskCache, logger)

	opts := server.Options{
		Config:    cfg,
		Logger:    logger,
		Assembler: assembler.New(weatherClient, marketClient, analyzer, logger),
		Sessions:  sessions,
		News:      newsClient,
		Analyzer:  analyzer,
		Health:    healthManager,
	}
	if completer != nil {
		opts.Completer = completer
	}

	srv := server.New(opts)

	logger.Info("kisan assistant ready",
		zap.String("version", serviceVersion),
		zap.String("port", cfg.Server.Port),
		zap.Bool("llm_configured", completer != nil),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server terminated", zap.Error(err))
		return err
	}
	return nil
}

// runMaintenance periodically drops idle sessions and expired cache rows.
func runMaintenance(sessions *session.MemoryStore, diskCache *cache.SQLite, logger *zap.Logger) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for range ticker.C {
		removed := sessions.Prune()
		cleared, err := diskCache.ClearExpired()
		if err != nil {
			logger.Warn("cache maintenance failed", zap.Error(err))
		}
		if removed > 0 || cleared > 0 {
			logger.Info("maintenance sweep",
				zap.Int("sessions_pruned", removed),
				zap.Int64("cache_entries_cleared", cleared),
			)
		}
	}
}
