// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package relay

import (
	"context"
	"sync"
)

type write struct {
	Series string
	Points []Point
}

// recordSink records writes and fails the series listed in failSeries.
type recordSink struct {
	mu         sync.Mutex
	writes     []write
	failSeries map[string]error
}

func (s *recordSink) Write(ctx context.Context, series string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, write{Series: series, Points: points})
	if err, ok := s.failSeries[series]; ok {
		return err
	}
	return nil
}

type blockSink struct{}

func (blockSink) Write(ctx context.Context, series string, points []Point) error {
	<-ctx.Done()
	return ctx.Err()
}

type panicSink struct{}

func (panicSink) Write(ctx context.Context, series string, points []Point) error {
	panic("sink exploded")
}
