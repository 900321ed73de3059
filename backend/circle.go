// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package backend

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/chengshiwen/influx-relay/relay"
	"go.uber.org/zap"
	"stathat.com/c/consistent"
)

var ErrEmptyBackends = errors.New("circle needs at least one backend")

// Circle routes every series to one of its backends by consistent hashing of the series key.
type Circle struct {
	Backends     []*HttpBackend
	router       *consistent.Consistent
	routerCache  sync.Map
	mapToBackend map[string]*HttpBackend
}

func NewCircle(cfg *relay.RelayConfig, logger *zap.Logger) (ic *Circle, err error) {
	if len(cfg.Influx.Backends) == 0 {
		return nil, ErrEmptyBackends
	}
	ic = &Circle{
		Backends:     make([]*HttpBackend, len(cfg.Influx.Backends)),
		router:       consistent.New(),
		mapToBackend: make(map[string]*HttpBackend),
	}
	ic.router.NumberOfReplicas = 256
	for idx, bkcfg := range cfg.Influx.Backends {
		ic.Backends[idx], err = NewHttpBackend(bkcfg, cfg.Influx.Database, cfg.WriteTimeout(), logger)
		if err != nil {
			ic.Close()
			return nil, err
		}
		ic.addRouter(ic.Backends[idx], idx)
	}
	return
}

func (ic *Circle) addRouter(be *HttpBackend, idx int) {
	str := "|" + strconv.Itoa(idx)
	ic.router.Add(str)
	ic.mapToBackend[str] = be
}

func (ic *Circle) GetBackend(key string) *HttpBackend {
	if be, ok := ic.routerCache.Load(key); ok {
		return be.(*HttpBackend)
	}
	value, _ := ic.router.Get(key)
	be := ic.mapToBackend[value]
	ic.routerCache.Store(key, be)
	return be
}

func (ic *Circle) Write(ctx context.Context, series string, points []relay.Point) error {
	return ic.GetBackend(series).Write(ctx, series, points)
}

func (ic *Circle) GetHealth() interface{} {
	var wg sync.WaitGroup
	backends := make([]interface{}, len(ic.Backends))
	for i, be := range ic.Backends {
		wg.Add(1)
		go func(i int, be *HttpBackend) {
			defer wg.Done()
			backends[i] = be.GetHealth()
		}(i, be)
	}
	wg.Wait()
	return backends
}

func (ic *Circle) IsActive() bool {
	for _, be := range ic.Backends {
		if !be.IsActive() {
			return false
		}
	}
	return true
}

func (ic *Circle) Close() {
	for _, be := range ic.Backends {
		if be != nil {
			be.Close()
		}
	}
}
