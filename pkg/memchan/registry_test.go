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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetOrCreateReturnsSameHandle(t *testing.T) {
	reg := NewRegistry()
	defer reg.CleanupAll()
	name := uniqueName("reg")

	ch1, err := reg.GetOrCreate(name, 1024, ModeRingQueue, RoleProducer, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch1.Unlink() })

	ch2, err := reg.GetOrCreate(name, 1024, ModeRingQueue, RoleProducer, true)
	require.NoError(t, err)
	assert.Same(t, ch1, ch2, "repeated calls must not map the segment twice")
}

func TestRegistry_MissingWithoutCreate(t *testing.T) {
	reg := NewRegistry()
	defer reg.CleanupAll()

	_, err := reg.GetOrCreate(uniqueName("absent"), 1024, ModeRingQueue, RoleConsumer, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_ConcurrentGetOrCreate(t *testing.T) {
	reg := NewRegistry()
	defer reg.CleanupAll()
	name := uniqueName("race")

	var wg sync.WaitGroup
	handles := make([]*Channel, 8)
	errs := make([]error, len(handles))
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], errs[i] = reg.GetOrCreate(name, 1024, ModeRingQueue, RoleProducer, true)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	t.Cleanup(func() { _ = handles[0].Unlink() })

	for _, h := range handles[1:] {
		assert.Same(t, handles[0], h)
	}
}

func TestRegistry_RemoveUnlinksProducerSegment(t *testing.T) {
	reg := NewRegistry()
	defer reg.CleanupAll()
	name := uniqueName("remove")

	ch, err := reg.GetOrCreate(name, 1024, ModeRingQueue, RoleProducer, true)
	require.NoError(t, err)
	require.NoError(t, reg.Remove(name))

	assert.ErrorIs(t, ch.Write([]byte("x")), ErrClosed)
	// The segment is gone: a fresh consumer cannot attach.
	_, err = Open(name, 1024, ModeRingQueue, RoleConsumer)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, reg.Remove(name), ErrNotFound)
}

func TestRegistry_CleanupAllTolerant(t *testing.T) {
	reg := NewRegistry()

	names := []string{uniqueName("c1"), uniqueName("c2"), uniqueName("c3")}
	for _, n := range names {
		ch, err := reg.GetOrCreate(n, 1024, ModeRingQueue, RoleProducer, true)
		require.NoError(t, err)
		t.Cleanup(func() { _ = ch.Unlink() })
	}
	// One channel already closed by hand: CleanupAll must still finish
	// the rest without error.
	ch, _ := reg.Get(names[1])
	require.NoError(t, ch.Close())

	reg.CleanupAll()
	assert.Empty(t, reg.Channels())

	// Running cleanup twice is harmless.
	reg.CleanupAll()
}

func TestRegistry_Snapshots(t *testing.T) {
	reg := NewRegistry()
	defer reg.CleanupAll()

	for i := 0; i < 3; i++ {
		ch, err := reg.GetOrCreate(uniqueName("snap"), 1024, ModeRingQueue, RoleProducer, true)
		require.NoError(t, err)
		t.Cleanup(func() { _ = ch.Unlink() })
		require.NoError(t, ch.Write([]byte("payload")))
	}

	snaps := reg.Snapshots()
	require.Len(t, snaps, 3)
	for _, s := range snaps {
		assert.Equal(t, uint64(1), s.TotalWrites)
	}
}

func TestRegistry_ExitHandlerStop(t *testing.T) {
	reg := NewRegistry()
	defer reg.CleanupAll()

	stop := reg.InstallExitHandler()
	stop()
}
