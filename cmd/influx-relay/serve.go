// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chengshiwen/influx-relay/relay"
	"github.com/chengshiwen/influx-relay/service"
	"github.com/chengshiwen/influx-relay/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewServeCommand() *cobra.Command {
	var configFile string
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept events over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configFile, watch, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "relay.yaml", "config file")
	cmd.Flags().BoolVarP(&watch, "watch", "w", true, "reload on config file change")
	return cmd
}

func runServe(parent context.Context, configFile string, watch bool, out io.Writer) error {
	cfg, err := relay.NewFileConfig(configFile)
	if err != nil {
		return err
	}
	logger, err := util.NewLogger(cfg.LogConfig())
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Info("influx-relay starting", zap.String("version", relay.Version), zap.String("commit", relay.GitCommit), zap.String("build", relay.BuildTime))
	cfg.PrintSummary(logger)
	logger.Debug("config", zap.Stringer("config", cfg))

	hs, err := service.NewHttpService(cfg, out, logger)
	if err != nil {
		return err
	}
	defer hs.Close()

	if watch {
		err = relay.WatchFileConfig(configFile, func(nc *relay.RelayConfig, err error) {
			if err != nil {
				logger.Error("reload config error, keep running config", zap.Error(err))
				return
			}
			if nc.ListenAddr != cfg.ListenAddr {
				logger.Warn("listen_addr change needs a restart", zap.String("listen_addr", nc.ListenAddr))
			}
			if err := hs.Reload(nc); err != nil {
				logger.Error("reload error, keep running config", zap.Error(err))
				return
			}
			logger.Info("config reloaded")
			nc.PrintSummary(logger)
		})
		if err != nil {
			return err
		}
	}

	mux := service.NewServeMux()
	hs.Register(mux)
	server := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     mux,
		IdleTimeout: 120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http service start", zap.String("listen_addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("http service shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.WriteTimeout()+5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
