/*
 * Copyright 2026 Quantfabric Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package diag

import (
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/quantfabric/memchan/pkg/memchan"
)

// Poller takes channel stats snapshots on a shared goroutine pool, so a
// dashboard scraping many channels does not serialize on slow ones.
type Poller struct {
	pool *ants.Pool
}

// NewPoller builds a Poller with at most size concurrent snapshot tasks.
func NewPoller(size int) (*Poller, error) {
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &Poller{pool: pool}, nil
}

// Poll snapshots every channel in the registry concurrently and invokes
// fn once per snapshot. fn may be called from multiple goroutines. Poll
// returns after all snapshots are delivered.
func (p *Poller) Poll(reg *memchan.Registry, fn func(memchan.StatSnapshot)) error {
	chans := reg.Channels()
	var wg sync.WaitGroup
	wg.Add(len(chans))
	for _, ch := range chans {
		ch := ch
		err := p.pool.Submit(func() {
			defer wg.Done()
			fn(ch.Stats())
		})
		if err != nil {
			wg.Done()
			return err
		}
	}
	wg.Wait()
	return nil
}

// Release shuts the pool down.
func (p *Poller) Release() {
	p.pool.Release()
}
