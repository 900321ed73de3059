// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package relay

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/chengshiwen/influx-relay/monitor"
	"go.uber.org/zap"
)

// Sample is one parsed output line.
type Sample struct {
	Metric    string
	Value     Value
	Timestamp float64
}

type LineParser struct {
	rule    *regexp.Regexp
	logger  *zap.Logger
	metrics *monitor.Metrics
}

// CompileStripRule turns a strip_metric setting into the rule removing the longest prefix ending in "<pattern>.".
// An empty pattern yields a nil rule.
func CompileStripRule(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(`^.*(?:` + pattern + `)\.(.*)$`)
}

func NewLineParser(rule *regexp.Regexp, logger *zap.Logger, metrics *monitor.Metrics) *LineParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LineParser{rule: rule, logger: logger, metrics: metrics}
}

// StripMetric removes the namespace matched by rule from name. No rule or no match keeps name.
func StripMetric(rule *regexp.Regexp, name string) string {
	if rule == nil {
		return name
	}
	return rule.ReplaceAllString(name, "$1")
}

// Parse returns one sample per well-formed line of output. Malformed lines are logged,
// reported in the returned errors and skipped.
func (lp *LineParser) Parse(output string) (samples []Sample, errs []*LineParseError) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lp.logger.Debug("parsing line", zap.String("line", line))

		sample, err := lp.ParseLine(line)
		if err != nil {
			lp.logger.Error("error parsing output line",
				zap.String("line", line),
				zap.String("output", output),
				zap.Error(err))
			lp.metrics.IncLine("malformed")
			errs = append(errs, err)
			continue
		}
		lp.metrics.IncLine("parsed")
		lp.metrics.IncValue(sample.Value.Kind.String())
		samples = append(samples, sample)
	}
	return
}

func (lp *LineParser) ParseLine(line string) (Sample, *LineParseError) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Sample{}, &LineParseError{Line: line, Cause: fmt.Errorf("%w, got %d", ErrWrongFieldCount, len(fields))}
	}
	name, rawValue, rawTime := fields[0], fields[1], fields[2]

	ts, err := strconv.ParseFloat(rawTime, 64)
	if err != nil || math.IsNaN(ts) || math.IsInf(ts, 0) {
		return Sample{}, &LineParseError{Line: line, Cause: fmt.Errorf("%w: %q", ErrInvalidTimestamp, rawTime)}
	}

	value := ParseValue(rawValue)
	if value.Kind == StringValue {
		lp.logger.Debug("value kept as string", zap.String("metric", name), zap.String("value", rawValue))
	}
	return Sample{
		Metric:    StripMetric(lp.rule, name),
		Value:     value,
		Timestamp: ts,
	}, nil
}
