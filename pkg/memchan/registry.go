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

package memchan

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/quantfabric/memchan/internal/shm"
)

// Registry is an explicit directory of named channels owned by one
// process. Repeated GetOrCreate calls with the same name return the same
// handle, preventing duplicate mappings and divergent stats. There is no
// process-wide global: construct a Registry, pass it around, and tear it
// down with CleanupAll for deterministic shutdown ordering.
type Registry struct {
	channels cmap.ConcurrentMap[string, *Channel]

	// createMu serializes the open path so two racing GetOrCreate calls
	// for the same name cannot both map the segment.
	createMu sync.Mutex

	log *logger
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: cmap.New[*Channel](),
		log:      newLogger("memchan/registry", nil),
	}
}

// GetOrCreate returns the channel registered under name, opening it on
// first use. With createIfMissing false the segment must already exist;
// an absent one fails with ErrNotFound regardless of role.
func (r *Registry) GetOrCreate(name string, capacityBytes int, mode Mode, role Role, createIfMissing bool, opts ...Option) (*Channel, error) {
	if ch, ok := r.channels.Get(name); ok {
		return ch, nil
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()
	if ch, ok := r.channels.Get(name); ok {
		return ch, nil
	}

	if !createIfMissing && !shm.Exists(name) {
		return nil, fmt.Errorf("%w: channel %q", ErrNotFound, name)
	}
	openRole := role
	if !createIfMissing && role == RoleProducer {
		// The segment exists; re-attach rather than clobber it.
		openRole = RoleConsumer
	}
	ch, err := Open(name, capacityBytes, mode, openRole, opts...)
	if err != nil {
		return nil, err
	}
	ch.role = role
	r.channels.Set(name, ch)
	return ch, nil
}

// Get returns a registered channel without opening anything.
func (r *Registry) Get(name string) (*Channel, bool) {
	return r.channels.Get(name)
}

// Remove closes the named channel and drops it from the registry. When
// this process holds the producer role the backing segment is unlinked
// as well.
func (r *Registry) Remove(name string) error {
	ch, ok := r.channels.Pop(name)
	if !ok {
		return fmt.Errorf("%w: channel %q", ErrNotFound, name)
	}
	err := ch.Close()
	if ch.Role() == RoleProducer {
		if uerr := ch.Unlink(); uerr != nil && err == nil {
			err = uerr
		}
	}
	return err
}

// CleanupAll closes every registered channel, tolerating and logging
// per-channel failures so one stuck segment never blocks the rest.
// Segments are not unlinked; destructive removal stays explicit.
func (r *Registry) CleanupAll() {
	for entry := range r.channels.IterBuffered() {
		if err := entry.Val.Close(); err != nil {
			r.log.warnf("cleanup of channel %q failed: %v", entry.Key, err)
		}
	}
	r.channels.Clear()
}

// Snapshots returns stats for every registered channel, for diagnostics
// pollers.
func (r *Registry) Snapshots() []StatSnapshot {
	snaps := make([]StatSnapshot, 0, r.channels.Count())
	for entry := range r.channels.IterBuffered() {
		snaps = append(snaps, entry.Val.Stats())
	}
	return snaps
}

// Channels returns the registered channels, for health checks and
// pollers that need per-channel access.
func (r *Registry) Channels() []*Channel {
	chans := make([]*Channel, 0, r.channels.Count())
	for entry := range r.channels.IterBuffered() {
		chans = append(chans, entry.Val)
	}
	return chans
}

// InstallExitHandler runs CleanupAll when one of the given signals
// arrives (SIGINT and SIGTERM when none are given), so local mappings are
// released even on abnormal shutdown. It returns a stop function that
// uninstalls the handler; normal shutdown paths should call CleanupAll
// directly for deterministic ordering.
func (r *Registry) InstallExitHandler(sigs ...os.Signal) (stop func()) {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			r.log.infof("received %v, cleaning up channels", sig)
			r.CleanupAll()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
