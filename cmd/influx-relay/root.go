// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"runtime"

	"github.com/chengshiwen/influx-relay/relay"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the CLI. Commands that report an exit status store it in code.
func NewRootCommand(code *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "influx-relay",
		Short: "Relay check output metrics to InfluxDB",
		Long: `influx-relay reads monitoring check events, parses the metrics lines in
the check output ("<metric> <value> <timestamp>" per line) and writes them
to InfluxDB.

  influx-relay handle -c relay.yaml < event.json   # pipe handler, one event
  influx-relay serve -c relay.yaml                 # HTTP intake on POST /event`,
		SilenceUsage: true,
	}
	cmd.AddCommand(NewHandleCommand(code))
	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewVersionCommand())
	return cmd
}

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Version:    %s\n", relay.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Git commit: %s\n", relay.GitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "Build time: %s\n", relay.BuildTime)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
