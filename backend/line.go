// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package backend

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/chengshiwen/influx-relay/relay"
)

// LineSink prints points as line protocol instead of sending them anywhere.
type LineSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewLineSink(w io.Writer) *LineSink {
	return &LineSink{w: w}
}

func ParseToLine(series string, p relay.Point) (line string, err error) {
	pt, err := NewPoint(series, p)
	if err != nil {
		return "", err
	}
	line = pt.PrecisionString(PrecisionSeconds)
	return
}

func (ls *LineSink) Write(ctx context.Context, series string, points []relay.Point) error {
	var b strings.Builder
	for _, p := range points {
		line, err := ParseToLine(series, p)
		if err != nil {
			return err
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	_, err := io.WriteString(ls.w, b.String())
	return err
}

func (ls *LineSink) GetHealth() interface{} {
	return []interface{}{map[string]interface{}{"name": "dry_run", "active": true}}
}

func (ls *LineSink) Close() {}
