// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/chengshiwen/influx-relay/monitor"
	"go.uber.org/zap"
)

// Sink writes the points of one series with second precision.
type Sink interface {
	Write(ctx context.Context, series string, points []Point) error
}

type FailurePolicy int

const (
	// AlwaysSuccess reports success once every write was attempted, failed or not.
	AlwaysSuccess FailurePolicy = iota
	// ReportPartialFailure reports a warning exit code when any write failed.
	ReportPartialFailure
)

const (
	PolicyAlwaysSuccess        = "always_success"
	PolicyReportPartialFailure = "report_partial_failure"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", PolicyAlwaysSuccess:
		return AlwaysSuccess, nil
	case PolicyReportPartialFailure:
		return ReportPartialFailure, nil
	}
	return 0, ErrInvalidFailurePolicy
}

func (fp FailurePolicy) String() string {
	if fp == ReportPartialFailure {
		return PolicyReportPartialFailure
	}
	return PolicyAlwaysSuccess
}

const (
	ExitOK       = 0
	ExitWarning  = 1
	ExitCritical = 2

	MessageFinished   = "InfluxDB: Handler finished"
	MessageSetupError = "InfluxDB: Error setting up event object"
)

type Outcome struct {
	Attempted int
	Failed    int
	Errors    []error
}

type Dispatcher struct {
	sink    Sink
	timeout time.Duration
	policy  FailurePolicy
	logger  *zap.Logger
	metrics *monitor.Metrics
}

func NewDispatcher(sink Sink, timeout time.Duration, policy FailurePolicy, logger *zap.Logger, metrics *monitor.Metrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{sink: sink, timeout: timeout, policy: policy, logger: logger, metrics: metrics}
}

// Dispatch writes every series of the batch, continuing past failed writes.
func (d *Dispatcher) Dispatch(ctx context.Context, batch *PointBatch) *Outcome {
	oc := &Outcome{}
	for _, entry := range batch.Entries {
		oc.Attempted++
		err := d.write(ctx, entry)
		if err != nil {
			werr := &SinkWriteError{Series: entry.Series, Cause: err}
			d.logger.Error("error posting event",
				zap.String("series", entry.Series),
				zap.Int("points", len(entry.Points)),
				zap.Error(err))
			oc.Failed++
			oc.Errors = append(oc.Errors, werr)
		}
	}
	return oc
}

func (d *Dispatcher) write(ctx context.Context, entry *SeriesPoints) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	start := time.Now()
	err := d.sink.Write(ctx, entry.Series, entry.Points)
	d.metrics.ObserveWrite(start, err)
	return err
}

// Report maps an outcome to the completion message and exit code under the dispatcher's policy.
func (d *Dispatcher) Report(oc *Outcome) *Result {
	if d.policy == ReportPartialFailure && oc.Failed > 0 {
		return &Result{
			Message:  fmt.Sprintf("%s with %d/%d failed writes", MessageFinished, oc.Failed, oc.Attempted),
			ExitCode: ExitWarning,
		}
	}
	return &Result{Message: MessageFinished, ExitCode: ExitOK}
}
