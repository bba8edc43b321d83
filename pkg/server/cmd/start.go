/* Copyright (C) 2025 Habitlog contributors
 *
 * This file is part of Habitlog.
 *
 * Habitlog is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * Habitlog is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with Habitlog.  If not, see <https://www.gnu.org/licenses/>.
 */


package cmd

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/habitlog/habitlog/pkg/server/app"
	"github.com/habitlog/habitlog/pkg/server/config"
	"github.com/habitlog/habitlog/pkg/server/controllers"
	"github.com/habitlog/habitlog/pkg/server/database"
	"github.com/habitlog/habitlog/pkg/server/log"
	mw "github.com/habitlog/habitlog/pkg/server/middleware"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const (
	shutdownTimeout  = 10 * time.Second
	logFileMaxSizeMB = 100
)

func newStartCmd(version string) *cobra.Command {
	var params config.Params
	var envFile string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnv(envFile); err != nil {
				return err
			}

			cfg, err := config.New(params)
			if err != nil {
				return errors.Wrap(err, "invalid configuration")
			}

			closeLog, err := setupLog(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			log.WithFields(log.Fields{
				"version":  version,
				"port":     cfg.Port,
				"dbDriver": cfg.DBDriver,
			}).Info("habitlog server starting")

			return serve(cmd.Context(), cfg, nil)
		},
	}

	f := cmd.Flags()
	f.StringVar(&envFile, "envFile", ".env", "Path to a dotenv file loaded before reading the environment")
	f.StringVar(&params.AppEnv, "appEnv", "", "Application environment (env: APP_ENV, default: PRODUCTION)")
	f.StringVar(&params.Port, "port", "", "Server port (env: PORT, default: 3001)")
	f.StringVar(&params.DBDriver, "dbDriver", "", "Database driver: sqlite or postgres (env: DBDriver, default: sqlite)")
	f.StringVar(&params.DBPath, "dbPath", "", "Path to SQLite database file (env: DBPath, default: $XDG_DATA_HOME/habitlog/server.db)")
	f.StringVar(&params.DBURL, "dbUrl", "", "Postgres connection URL (env: DBURL)")
	f.StringVar(&params.LogLevel, "logLevel", "", "Log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")
	f.StringVar(&params.LogFile, "logFile", "", "Write logs to this file, rotating it (env: LOG_FILE, default: stderr)")
	f.IntVar(&params.RateLimit, "rateLimit", 0, "Requests per second allowed per client (env: RATE_LIMIT, default: 20)")

	return cmd
}

// setupLog applies the log configuration and returns a function releasing
// the log file, if any
func setupLog(cfg config.Config) (func(), error) {
	log.SetLevel(cfg.LogLevel)

	if cfg.LogFile == "" {
		return func() {}, nil
	}

	var w io.WriteCloser = log.NewFileWriter(cfg.LogFile, logFileMaxSizeMB)
	if _, err := w.Write(nil); err != nil {
		return nil, errors.Wrapf(err, "opening log file %s", cfg.LogFile)
	}
	log.SetOutput(w)

	return func() {
		log.SetOutput(nil)
		w.Close()
	}, nil
}

func initDB(cfg config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DSN(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if err := database.InitSchema(db); err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, errors.Wrap(err, "running migrations")
	}

	return db, nil
}

// serve runs the server until ctx is done. If ready is not nil, it receives
// the address the server listens on.
func serve(ctx context.Context, cfg config.Config, ready chan<- string) error {
	db, err := initDB(cfg)
	if err != nil {
		return errors.Wrap(err, "initializing database")
	}
	defer database.Close(db)

	a := app.App{DB: db}
	limiter := mw.NewRateLimiter(cfg.RateLimit)

	ctl := controllers.New(&a)
	r, err := controllers.NewRouter(&a, controllers.RouteConfig{
		Controllers: ctl,
		APIRoutes:   controllers.NewAPIRoutes(ctl),
		Limiter:     limiter,
	})
	if err != nil {
		return errors.Wrap(err, "initializing router")
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Port))
	if err != nil {
		return errors.Wrapf(err, "listening on port %s", cfg.Port)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go limiter.Run(ctx)

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serving")
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down")
	}

	return nil
}
