// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chengshiwen/influx-relay/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestServeDryRunWritesToCommandOutput(t *testing.T) {
	addr := freeAddr(t)
	path := filepath.Join(t.TempDir(), "relay.yaml")
	content := "dry_run: true\nlog_level: fatal\nlisten_addr: " + addr + "\ninflux:\n  grouping: " + relay.GroupingPerMetric + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	var out bytes.Buffer
	var code int
	cmd := NewRootCommand(&code)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"serve", "-c", path, "--watch=false"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	base := "http://" + addr
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/ping")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 5*time.Second, 20*time.Millisecond)

	event := `{"check":{"name":"disk","output":"used 72.5 1620000000"},"client":{"name":"web01"}}`
	resp, err := http.Post(base+"/event", "application/json", strings.NewReader(event))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.Equal(t, "disk.web01.used value=72.5 1620000000\n", out.String())
}
