// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package service

import (
	"compress/gzip"
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/chengshiwen/influx-relay/backend"
	"github.com/chengshiwen/influx-relay/monitor"
	"github.com/chengshiwen/influx-relay/relay"
	"github.com/chengshiwen/influx-relay/util"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type ServeMux struct {
	*http.ServeMux
}

func NewServeMux() *ServeMux {
	return &ServeMux{ServeMux: http.NewServeMux()}
}

func (mux *ServeMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Influx-Relay-Version", relay.Version)
	mux.ServeMux.ServeHTTP(w, r)
}

// pipeline is swapped as a whole on config reload.
type pipeline struct {
	handler *relay.Handler
	sink    backend.Sink
	token   string
}

type HttpService struct { // nolint:golint
	current  atomic.Value
	mu       sync.Mutex
	pool     *ants.Pool
	out      io.Writer
	logger   *zap.Logger
	metrics  *monitor.Metrics
	registry *prometheus.Registry
}

// NewHttpService builds the event intake. out receives line protocol in dry run mode.
func NewHttpService(cfg *relay.RelayConfig, out io.Writer, logger *zap.Logger) (hs *HttpService, err error) { // nolint:golint
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	hs = &HttpService{
		out:      out,
		logger:   logger,
		metrics:  monitor.NewMetrics(reg),
		registry: reg,
	}
	hs.pool, err = ants.NewPool(cfg.PoolSize)
	if err != nil {
		return nil, err
	}
	if err = hs.Reload(cfg); err != nil {
		hs.pool.Release()
		return nil, err
	}
	return
}

// Reload builds a new sink and handler from cfg and swaps them in. In-flight events
// finish on the previous pipeline.
func (hs *HttpService) Reload(cfg *relay.RelayConfig) error {
	sink, err := backend.NewSink(cfg, hs.out, hs.logger)
	if err != nil {
		return err
	}
	handler, err := relay.NewHandler(cfg, sink, hs.logger, hs.metrics)
	if err != nil {
		sink.Close()
		return err
	}

	hs.mu.Lock()
	defer hs.mu.Unlock()
	old, _ := hs.current.Load().(*pipeline)
	hs.current.Store(&pipeline{handler: handler, sink: sink, token: cfg.Token})
	hs.pool.Tune(cfg.PoolSize)
	if old != nil {
		old.sink.Close()
	}
	return nil
}

func (hs *HttpService) active() *pipeline {
	return hs.current.Load().(*pipeline)
}

func (hs *HttpService) Register(mux *ServeMux) {
	mux.HandleFunc("/ping", hs.HandlerPing)
	mux.HandleFunc("/event", hs.HandlerEvent)
	mux.HandleFunc("/health", hs.HandlerHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(hs.registry, promhttp.HandlerOpts{}))
}

func (hs *HttpService) HandlerPing(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (hs *HttpService) HandlerEvent(w http.ResponseWriter, req *http.Request) {
	if !hs.checkMethodAndAuth(w, req, "POST") {
		return
	}

	body := req.Body
	if req.Header.Get("Content-Encoding") == "gzip" {
		b, err := gzip.NewReader(body)
		if err != nil {
			hs.WriteError(w, req, http.StatusBadRequest, "unable to decode gzip body")
			return
		}
		defer b.Close()
		body = b
	}
	p, err := ioutil.ReadAll(body)
	if err != nil {
		hs.WriteError(w, req, http.StatusBadRequest, err.Error())
		return
	}

	res, err := hs.Handle(p)
	if err != nil {
		hs.logger.Error("submit event error", zap.Error(err), zap.String("client", req.RemoteAddr))
		hs.WriteError(w, req, http.StatusServiceUnavailable, err.Error())
		return
	}
	status := http.StatusOK
	if res.ExitCode == relay.ExitCritical {
		status = http.StatusBadRequest
	}
	hs.Write(w, req, status, res)
}

// Handle runs one event on the pool and waits for its result. The event is not tied to
// the request context so a disconnecting client does not abort the writes.
func (hs *HttpService) Handle(raw []byte) (*relay.Result, error) {
	pl := hs.active()
	ch := make(chan *relay.Result, 1)
	err := hs.pool.Submit(func() {
		ch <- pl.handler.Handle(context.Background(), raw)
	})
	if err != nil {
		return nil, err
	}
	return <-ch, nil
}

func (hs *HttpService) HandlerHealth(w http.ResponseWriter, req *http.Request) {
	if !hs.checkMethodAndAuth(w, req, "GET") {
		return
	}
	resp := map[string]interface{}{
		"name":     "influx-relay",
		"message":  "ready for events",
		"status":   "pass",
		"backends": hs.active().sink.GetHealth(),
		"running":  hs.pool.Running(),
		"version":  relay.Version,
		"commit":   relay.GitCommit,
	}
	hs.Write(w, req, http.StatusOK, resp)
}

func (hs *HttpService) Write(w http.ResponseWriter, req *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	pretty := req.URL.Query().Get("pretty") == "true"
	w.Write(util.MarshalJSON(data, pretty))
}

func (hs *HttpService) WriteError(w http.ResponseWriter, req *http.Request, status int, err string) {
	w.Header().Set("X-Influx-Relay-Error", err)
	hs.Write(w, req, status, map[string]string{"error": err})
}

func (hs *HttpService) checkMethodAndAuth(w http.ResponseWriter, req *http.Request, methods ...string) bool {
	return hs.checkMethod(w, req, methods...) && hs.checkAuth(w, req)
}

func (hs *HttpService) checkMethod(w http.ResponseWriter, req *http.Request, methods ...string) bool {
	for _, method := range methods {
		if req.Method == method {
			return true
		}
	}
	hs.WriteError(w, req, http.StatusMethodNotAllowed, "method not allow")
	return false
}

func (hs *HttpService) checkAuth(w http.ResponseWriter, req *http.Request) bool {
	token := hs.active().token
	if token == "" {
		return true
	}
	if strings.TrimSpace(strings.TrimPrefix(req.Header.Get("Authorization"), "Token ")) == token {
		return true
	}
	hs.WriteError(w, req, http.StatusUnauthorized, "authentication failed")
	return false
}

func (hs *HttpService) Close() {
	hs.pool.Release()
	hs.active().sink.Close()
}
