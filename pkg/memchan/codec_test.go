package memchan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONCodec_RoundTrip(t *testing.T) {
	c := jsonCodec{}

	type order struct {
		Symbol string  `json:"symbol"`
		Qty    float64 `json:"qty"`
	}
	payload, err := c.Marshal(order{Symbol: "BTCUSDT", Qty: 0.25})
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "\n")

	var got order
	require.NoError(t, c.Unmarshal(payload, &got))
	assert.Equal(t, "BTCUSDT", got.Symbol)
	assert.Equal(t, 0.25, got.Qty)
}

func TestJSONCodec_ErrorsWrapSerialization(t *testing.T) {
	c := jsonCodec{}

	_, err := c.Marshal(make(chan int))
	assert.ErrorIs(t, err, ErrSerialization)

	var v int
	assert.ErrorIs(t, c.Unmarshal([]byte("{not json"), &v), ErrSerialization)
}

func TestDefaultCodecOnChannel(t *testing.T) {
	prod, cons := openPair(t, 1024, ModeRingQueue)

	require.NoError(t, prod.WriteMessage([]string{"a", "b"}))
	var got []string
	ok, _, err := cons.ReadMessage(&got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	// Empty channel: ok=false, no error.
	ok, _, err = cons.ReadMessage(&got)
	require.NoError(t, err)
	assert.False(t, ok)
}
