// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io/ioutil"

	"github.com/chengshiwen/influx-relay/backend"
	"github.com/chengshiwen/influx-relay/relay"
	"github.com/chengshiwen/influx-relay/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewHandleCommand(code *int) *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "handle",
		Short: "Handle one event read from stdin",
		Long: "Read one JSON event from stdin, write its metrics and print the handler\n" +
			"status. The exit status is 0 on success, 1 when some writes failed under\n" +
			"report_partial_failure, and 2 when the event or config could not be used.",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			res := runHandle(cmd, configFile)
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			*code = res.ExitCode
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "relay.yaml", "config file")
	return cmd
}

func runHandle(cmd *cobra.Command, configFile string) *relay.Result {
	cfg, err := relay.NewFileConfig(configFile)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: load config: %v\n", err)
		return &relay.Result{Message: relay.MessageSetupError, ExitCode: relay.ExitCritical}
	}
	logger, err := util.NewLogger(cfg.LogConfig())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return &relay.Result{Message: relay.MessageSetupError, ExitCode: relay.ExitCritical}
	}
	defer logger.Sync()

	sink, err := backend.NewSink(cfg, cmd.OutOrStdout(), logger)
	if err != nil {
		logger.Error("create sink error", zap.Error(err))
		return &relay.Result{Message: relay.MessageSetupError, ExitCode: relay.ExitCritical}
	}
	defer sink.Close()

	handler, err := relay.NewHandler(cfg, sink, logger, nil)
	if err != nil {
		logger.Error("create handler error", zap.Error(err))
		return &relay.Result{Message: relay.MessageSetupError, ExitCode: relay.ExitCritical}
	}

	raw, err := ioutil.ReadAll(cmd.InOrStdin())
	if err != nil {
		logger.Error("read event error", zap.Error(err))
		return &relay.Result{Message: relay.MessageSetupError, ExitCode: relay.ExitCritical}
	}
	return handler.Handle(cmd.Context(), raw)
}
