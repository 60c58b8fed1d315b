package logutils

import (
	"bytes"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferredWriter_HoldsUntilRelease(t *testing.T) {
	var out bytes.Buffer
	d := NewDeferredWriter(&out)

	logger := zerolog.New(d)
	logger.Info().Str("order_id", "order-1").Msg("decision recorded")

	assert.Empty(t, out.String())

	require.NoError(t, d.Release())
	assert.Contains(t, out.String(), `"order_id":"order-1"`)

	out.Reset()
	require.NoError(t, d.Release())
	assert.Empty(t, out.String(), "release empties the buffer")
}

func TestDeferredWriter_ConcurrentWrites(t *testing.T) {
	var out bytes.Buffer
	d := NewDeferredWriter(&out)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.Write([]byte("x"))
		}()
	}
	wg.Wait()

	require.NoError(t, d.Release())
	assert.Len(t, out.String(), 20)
}
