// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/chengshiwen/influx-relay/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

const diskEvent = `{"check":{"name":"disk","output":"used 72.5 1620000000\nfree 27.5 1620000000"},"client":{"name":"web01"}}`

func newTestConfig(grouping, policy string) *RelayConfig {
	cfg := &RelayConfig{Influx: &InfluxConfig{Database: "metrics", Grouping: grouping, FailurePolicy: policy}}
	cfg.setDefault()
	return cfg
}

func newTestHandler(t *testing.T, cfg *RelayConfig, sink Sink) *Handler {
	t.Helper()
	h, err := NewHandler(cfg, sink, nil, nil)
	require.NoError(t, err)
	return h
}

func TestHandleSingleSeriesWithTags(t *testing.T) {
	sink := &recordSink{}
	h := newTestHandler(t, newTestConfig(GroupingSingleSeries, ""), sink)

	res := h.Handle(context.Background(), []byte(diskEvent))

	assert.Equal(t, &Result{Message: MessageFinished, ExitCode: ExitOK}, res)
	require.Len(t, sink.writes, 1)
	w := sink.writes[0]
	assert.Equal(t, "disk", w.Series)
	assert.Equal(t, []Point{
		{Time: 1620000000, Value: FloatVal(72.5), Tags: map[string]string{"host": "web01", "metric": "used"}},
		{Time: 1620000000, Value: FloatVal(27.5), Tags: map[string]string{"host": "web01", "metric": "free"}},
	}, w.Points)
}

func TestHandlePerMetricSeries(t *testing.T) {
	sink := &recordSink{}
	h := newTestHandler(t, newTestConfig(GroupingPerMetric, ""), sink)

	res := h.Handle(context.Background(), []byte(diskEvent))

	assert.Equal(t, ExitOK, res.ExitCode)
	require.Len(t, sink.writes, 2)
	assert.Equal(t, "disk.web01.used", sink.writes[0].Series)
	assert.Equal(t, "disk.web01.free", sink.writes[1].Series)
	assert.Equal(t, []Point{{Time: 1620000000, Value: FloatVal(72.5)}}, sink.writes[0].Points)
	assert.Equal(t, []Point{{Time: 1620000000, Value: FloatVal(27.5)}}, sink.writes[1].Points)
}

func TestHandleMalformedLine(t *testing.T) {
	logger, logs := newObservedLogger()
	sink := &recordSink{}
	h, err := NewHandler(newTestConfig(GroupingSingleSeries, ""), sink, logger, nil)
	require.NoError(t, err)

	raw := `{"check":{"name":"disk","output":"badline\nused 72.5 1620000000"},"client":{"name":"web01"}}`
	res := h.Handle(context.Background(), []byte(raw))

	assert.Equal(t, ExitOK, res.ExitCode)
	require.Len(t, sink.writes, 1)
	assert.Len(t, sink.writes[0].Points, 1)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestHandleDecodeFailure(t *testing.T) {
	logger, logs := newObservedLogger()
	metrics := monitor.NewMetrics(prometheus.NewRegistry())
	sink := &recordSink{}
	h, err := NewHandler(newTestConfig("", ""), sink, logger, metrics)
	require.NoError(t, err)

	res := h.Handle(context.Background(), []byte(`{"check":{"name":"disk","output":"used 1 1"}}`))

	assert.Equal(t, &Result{Message: MessageSetupError, ExitCode: ExitCritical}, res)
	assert.Empty(t, sink.writes)
	assert.Equal(t, 1, logs.FilterMessage("error setting up event object").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Events.WithLabelValues("decode_error")))
}

func TestHandleWriteFailurePolicies(t *testing.T) {
	fail := map[string]error{"disk.web01.free": errors.New("timeout")}

	sink := &recordSink{failSeries: fail}
	h := newTestHandler(t, newTestConfig("", PolicyAlwaysSuccess), sink)
	res := h.Handle(context.Background(), []byte(diskEvent))
	assert.Equal(t, ExitOK, res.ExitCode)
	assert.Len(t, sink.writes, 2)

	sink = &recordSink{failSeries: fail}
	h = newTestHandler(t, newTestConfig("", PolicyReportPartialFailure), sink)
	res = h.Handle(context.Background(), []byte(diskEvent))
	assert.Equal(t, ExitWarning, res.ExitCode)
	assert.Len(t, sink.writes, 2)
}

func TestHandleStripMetric(t *testing.T) {
	cfg := newTestConfig("", "")
	cfg.Influx.StripMetric = "web01"
	sink := &recordSink{}
	h := newTestHandler(t, cfg, sink)

	raw := `{"check":{"name":"load","output":"servers.web01.load.avg1 0.5 1620000000"},"client":{"name":"web01"}}`
	h.Handle(context.Background(), []byte(raw))
	require.Len(t, sink.writes, 1)
	assert.Equal(t, "load.web01.load.avg1", sink.writes[0].Series)
}

func TestHandleRecoversPanic(t *testing.T) {
	h := newTestHandler(t, newTestConfig("", ""), panicSink{})
	var res *Result
	assert.NotPanics(t, func() {
		res = h.Handle(context.Background(), []byte(diskEvent))
	})
	assert.Equal(t, ExitCritical, res.ExitCode)
}

func TestNewHandlerInvalidConfig(t *testing.T) {
	cfg := newTestConfig("", "")
	cfg.Influx.StripMetric = "("
	_, err := NewHandler(cfg, &recordSink{}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidStripMetric)

	cfg = newTestConfig("by_host", "")
	_, err = NewHandler(cfg, &recordSink{}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidGrouping)
}
