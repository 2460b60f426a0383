//go:build unix

package shm

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testName() string {
	return fmt.Sprintf("segtest_%d_%d", os.Getpid(), time.Now().UnixNano())
}

func TestSegment_CreateAttach(t *testing.T) {
	name := testName()
	seg, err := Create(name, 4096)
	require.NoError(t, err)
	defer func() {
		_ = seg.Close()
		_ = seg.Unlink()
	}()

	assert.Equal(t, 4096, seg.Size())
	assert.Equal(t, name, seg.Name())

	// Writes through one mapping must be visible through the other.
	seg.Bytes()[0] = 0xAB

	peer, err := Attach(name)
	require.NoError(t, err)
	defer func() { _ = peer.Close() }()

	assert.Equal(t, 4096, peer.Size())
	assert.Equal(t, byte(0xAB), peer.Bytes()[0])
}

func TestSegment_AttachMissing(t *testing.T) {
	_, err := Attach(testName())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSegment_StaleRecreated(t *testing.T) {
	name := testName()
	stale, err := Create(name, 1024)
	require.NoError(t, err)
	stale.Bytes()[0] = 0xFF
	require.NoError(t, stale.Close())
	// No unlink: simulates a crashed producer leaving the file behind.

	seg, err := Create(name, 1024)
	require.NoError(t, err)
	defer func() {
		_ = seg.Close()
		_ = seg.Unlink()
	}()

	// The recreated segment must be zeroed, not the stale content.
	assert.Equal(t, byte(0), seg.Bytes()[0])
}

func TestSegment_CloseIdempotent(t *testing.T) {
	seg, err := Create(testName(), 1024)
	require.NoError(t, err)
	defer func() { _ = seg.Unlink() }()

	assert.NoError(t, seg.Close())
	assert.NoError(t, seg.Close())
}

func TestSegment_UnlinkTwice(t *testing.T) {
	seg, err := Create(testName(), 1024)
	require.NoError(t, err)
	defer func() { _ = seg.Close() }()

	require.NoError(t, seg.Unlink())
	assert.ErrorIs(t, seg.Unlink(), ErrAlreadyUnlinked)
	assert.False(t, Exists(seg.Name()))
}

func TestSegment_InvalidSize(t *testing.T) {
	_, err := Create(testName(), 0)
	assert.Error(t, err)
}
