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
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatest_OverwriteKeepsFreshestValue(t *testing.T) {
	prod, cons := openPair(t, 1024, ModeLatestValue)

	require.NoError(t, prod.WriteMessage(map[string]string{"status": "ok"}))
	require.NoError(t, prod.WriteMessage(map[string]string{"status": "degraded"}))

	var got map[string]string
	ok, seq, err := cons.ReadMessage(&got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "degraded", got["status"])
	assert.Equal(t, uint64(2), seq)

	// Not consumed: a second read sees the same value again.
	ok, seq, err = cons.ReadMessage(&got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "degraded", got["status"])
	assert.Equal(t, uint64(2), seq)
}

func TestLatest_EmptyBeforeFirstWrite(t *testing.T) {
	_, cons := openPair(t, 1024, ModeLatestValue)

	got, seq, err := cons.Read()
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, uint64(0), seq)
}

func TestLatest_SequenceIsMonotonic(t *testing.T) {
	prod, cons := openPair(t, 1024, ModeLatestValue)

	// Back-to-back writes faster than any clock tick must still produce
	// distinct sequence numbers.
	var last uint64
	for i := 0; i < 100; i++ {
		require.NoError(t, prod.Write([]byte{byte(i)}))
		_, seq, err := cons.Read()
		require.NoError(t, err)
		require.Greater(t, seq, last)
		last = seq
	}
}

// TestLatest_TornReadDetected constructs mismatched sequence markers
// directly, the way a reader would observe a producer mid-overwrite.
func TestLatest_TornReadDetected(t *testing.T) {
	prod, cons := openPair(t, 1024, ModeLatestValue)

	require.NoError(t, prod.Write([]byte("value")))

	// Bump the start sequence without committing a matching footer.
	cons.setSlotStartSeq(cons.slotStartSeq() + 1)

	got, _, err := cons.Read()
	require.ErrorIs(t, err, ErrTornRead)
	assert.Nil(t, got)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, uint64(1), cons.Stats().TornReads)
}

func TestLatest_StaleFooterDetected(t *testing.T) {
	prod, cons := openPair(t, 1024, ModeLatestValue)

	require.NoError(t, prod.Write([]byte("value")))

	// Corrupt the footer: start and end sequences now disagree.
	slot := cons.slot()
	binary.LittleEndian.PutUint64(slot[slotData+5:], 999)

	_, _, err := cons.Read()
	assert.ErrorIs(t, err, ErrTornRead)
}

func TestLatest_OversizedPayloadRejected(t *testing.T) {
	prod, _ := openPair(t, 64, ModeLatestValue)

	// Slot overhead is 20 bytes, so 44 fits and 45 never can.
	assert.NoError(t, prod.Write(make([]byte, 44)))
	assert.ErrorIs(t, prod.Write(make([]byte, 45)), ErrOversizedMessage)
}

func TestLatest_SlotLengthBoundsChecked(t *testing.T) {
	prod, cons := openPair(t, 64, ModeLatestValue)

	require.NoError(t, prod.Write([]byte("x")))
	cons.setSlotLen(60) // larger than capacity - SlotOverhead

	_, _, err := cons.Read()
	assert.ErrorIs(t, err, ErrCorruptFrame)
}
