// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package backend

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/chengshiwen/influx-relay/relay"
	client "github.com/influxdata/influxdb1-client/v2"
	"go.uber.org/zap"
)

const PrecisionSeconds = "s"

// HttpBackend writes series to one InfluxDB 1.x server over its HTTP API.
type HttpBackend struct { // nolint:golint
	client   client.Client
	Name     string
	Url      string // nolint:golint
	database string
	timeout  time.Duration
	active   atomic.Value
	logger   *zap.Logger
}

func NewHttpBackend(cfg *relay.BackendConfig, database string, timeout time.Duration, logger *zap.Logger) (hb *HttpBackend, err error) { // nolint:golint
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     cfg.Addr(),
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  timeout,
	})
	if err != nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	hb = &HttpBackend{
		client:   c,
		Name:     cfg.Name,
		Url:      cfg.Addr(),
		database: database,
		timeout:  timeout,
		logger:   logger,
	}
	hb.active.Store(true)
	return
}

// Write sends points as one batch. It returns ctx.Err() if ctx ends first; the request
// itself is bounded by the client timeout.
func (hb *HttpBackend) Write(ctx context.Context, series string, points []relay.Point) error {
	bp, err := NewBatchPoints(hb.database, series, points)
	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}

	ch := make(chan error, 1)
	go func() {
		ch <- hb.client.Write(bp)
	}()
	select {
	case err = <-ch:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		hb.active.Store(false)
		hb.logger.Debug("write failed", zap.String("backend", hb.Name), zap.String("url", hb.Url), zap.Error(err))
		return err
	}
	hb.active.Store(true)
	return nil
}

func (hb *HttpBackend) Ping() bool {
	_, _, err := hb.client.Ping(hb.timeout)
	if err != nil {
		hb.logger.Warn("ping failed", zap.String("backend", hb.Name), zap.String("url", hb.Url), zap.Error(err))
		hb.active.Store(false)
		return false
	}
	hb.active.Store(true)
	return true
}

func (hb *HttpBackend) IsActive() bool {
	return hb.active.Load().(bool)
}

func (hb *HttpBackend) GetHealth() interface{} {
	health := struct {
		Name   string `json:"name"`
		Url    string `json:"url"` // nolint:golint
		Active bool   `json:"active"`
	}{
		Name:   hb.Name,
		Url:    hb.Url,
		Active: hb.Ping(),
	}
	return health
}

func (hb *HttpBackend) Close() {
	hb.client.Close()
}
