// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/frostbyte-dev/santa-ring/core/broadcast"
	"github.com/frostbyte-dev/santa-ring/core/game"
	"github.com/frostbyte-dev/santa-ring/core/store/postgres"
	"github.com/frostbyte-dev/santa-ring/internal/api"
	"github.com/frostbyte-dev/santa-ring/internal/config"
	"github.com/frostbyte-dev/santa-ring/internal/health"
	"github.com/frostbyte-dev/santa-ring/internal/logger"
	"github.com/frostbyte-dev/santa-ring/internal/metrics"
	"github.com/frostbyte-dev/santa-ring/pkg/version"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	_ = godotenv.Load()

	log := logger.NewDefaultLogger()
	logger.SetDefaultLogger(log)
	log.Info("starting santa-server", logger.String("version", version.Short()))

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		log.Fatal("failed to load configuration", logger.Error(err), logger.String("path", *configPath))
	}
	log.SetLevel(parseLevel(cfg.Logging.Level))
	if cfg.Logging.Format == "pretty" {
		log.SetPrettyPrint(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, postgres.Config{
		DatabaseURL: cfg.Database.URL,
		MaxConns:    cfg.Database.MaxConns,
	})
	if err != nil {
		log.Fatal("failed to connect to database", logger.Error(err))
	}
	defer store.Close()

	if !cfg.Database.LazyConnect {
		if err := store.Migrate(ctx); err != nil {
			log.Fatal("failed to apply schema", logger.Error(err))
		}
	}

	bus := broadcast.NewBus(log)
	engine := game.NewEngine(store, store, bus, log)

	router := api.NewRouter(engine, store, store, bus, log, cfg.Auth.SessionCookieName, cfg.Auth.SessionCookieSecure)
	apiServer := &http.Server{Addr: cfg.Server.Addr(), Handler: router}

	checker := health.NewHealthChecker(5 * time.Second)
	checker.RegisterCheck("database", health.DatabaseHealthCheck(store.Ping))
	checker.RegisterCheck("broadcast", health.BroadcastHealthCheck(bus.HubCount, 10_000))
	healthServer := &http.Server{Addr: cfg.Health.Address, Handler: health.NewMux(checker)}

	metricsServer := &http.Server{Addr: cfg.Metrics.Address, Handler: metrics.Handler()}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("HTTP server listening", logger.String("addr", apiServer.Addr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if cfg.Health.Enabled {
		group.Go(func() error {
			log.Info("health server listening", logger.String("addr", healthServer.Addr))
			if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}

	if cfg.Metrics.Enabled {
		group.Go(func() error {
			log.Info("metrics server listening", logger.String("addr", metricsServer.Addr))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		log.Info("shutting down")
		_ = apiServer.Shutdown(shutdownCtx)
		_ = healthServer.Shutdown(shutdownCtx)
		_ = metricsServer.Shutdown(shutdownCtx)
		return nil
	})

	if err := group.Wait(); err != nil {
		log.Fatal("server exited with error", logger.Error(err))
	}
}

func parseLevel(s string) logger.Level {
	switch s {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}
