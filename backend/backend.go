// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package backend

import (
	"io"
	"math"
	"time"

	"github.com/chengshiwen/influx-relay/relay"
	client "github.com/influxdata/influxdb1-client/v2"
	"go.uber.org/zap"
)

const FieldValue = "value"

// Sink is a relay.Sink that can report its health and be closed.
type Sink interface {
	relay.Sink
	GetHealth() interface{}
	Close()
}

// NewSink returns a line protocol writer on out in dry run mode, otherwise a circle of InfluxDB backends.
func NewSink(cfg *relay.RelayConfig, out io.Writer, logger *zap.Logger) (Sink, error) {
	if cfg.DryRun {
		return NewLineSink(out), nil
	}
	return NewCircle(cfg, logger)
}

func FloatTime(t float64) time.Time {
	sec, frac := math.Modf(t)
	return time.Unix(int64(sec), int64(frac*1e9))
}

func NewPoint(series string, p relay.Point) (*client.Point, error) {
	fields := map[string]interface{}{FieldValue: p.Value.Interface()}
	return client.NewPoint(series, p.Tags, fields, FloatTime(p.Time))
}

func NewBatchPoints(database, series string, points []relay.Point) (client.BatchPoints, error) {
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  database,
		Precision: PrecisionSeconds,
	})
	if err != nil {
		return nil, err
	}
	for _, p := range points {
		pt, err := NewPoint(series, p)
		if err != nil {
			return nil, err
		}
		bp.AddPoint(pt)
	}
	return bp, nil
}
