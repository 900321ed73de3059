// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package relay

import (
	"context"
	"fmt"

	"github.com/chengshiwen/influx-relay/monitor"
	"go.uber.org/zap"
)

// Result is what an invocation reports back to its caller.
type Result struct {
	Message  string `json:"message"`
	ExitCode int    `json:"exit_code"`
}

// Handler runs the decode, parse, assemble and dispatch pipeline for one event at a time.
// It holds no mutable state and may be shared by concurrent invocations.
type Handler struct {
	parser     *LineParser
	dispatcher *Dispatcher
	grouping   GroupingStrategy
	logger     *zap.Logger
	metrics    *monitor.Metrics
}

func NewHandler(cfg *RelayConfig, sink Sink, logger *zap.Logger, metrics *monitor.Metrics) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ic := cfg.Influx
	grouping, err := ParseGroupingStrategy(ic.Grouping)
	if err != nil {
		return nil, err
	}
	policy, err := ParseFailurePolicy(ic.FailurePolicy)
	if err != nil {
		return nil, err
	}
	rule, err := CompileStripRule(ic.StripMetric)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStripMetric, err)
	}
	return &Handler{
		parser:     NewLineParser(rule, logger, metrics),
		dispatcher: NewDispatcher(sink, cfg.WriteTimeout(), policy, logger, metrics),
		grouping:   grouping,
		logger:     logger,
		metrics:    metrics,
	}, nil
}

// Handle processes one raw event. It never panics and always returns a result.
func (h *Handler) Handle(ctx context.Context, raw []byte) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic handling event", zap.Any("panic", r), zap.ByteString("event", raw))
			h.metrics.IncEvent("panic")
			res = &Result{Message: fmt.Sprintf("InfluxDB: Handler failed: %v", r), ExitCode: ExitCritical}
		}
	}()

	event, err := DecodeEvent(raw)
	if err != nil {
		h.logger.Error("error setting up event object", zap.Error(err), zap.ByteString("event", raw))
		h.metrics.IncEvent("decode_error")
		return &Result{Message: MessageSetupError, ExitCode: ExitCritical}
	}

	samples, _ := h.parser.Parse(event.Output)
	batch := Assemble(samples, event.ClientName, event.CheckName, event.ClientName, h.grouping)
	outcome := h.dispatcher.Dispatch(ctx, batch)
	res = h.dispatcher.Report(outcome)

	h.logger.Debug("event handled",
		zap.String("check", event.CheckName),
		zap.String("client", event.ClientName),
		zap.Int("samples", len(samples)),
		zap.Int("series", batch.Len()),
		zap.Int("failed_writes", outcome.Failed))
	if outcome.Failed > 0 {
		h.metrics.IncEvent("partial_failure")
	} else {
		h.metrics.IncEvent("ok")
	}
	return
}
