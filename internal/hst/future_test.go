package hst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncMatchesSync(t *testing.T) {
	r := openTest(t, legacyFile(4))

	f := r.SeekAsync(2)
	select {
	case <-f.Done():
	default:
		t.Fatal("future not settled")
	}
	b, err := f.Wait()
	require.NoError(t, err)
	assert.Equal(t, t0+2*hour, b.Timestamp)

	b, err = r.NextAsync().Wait()
	require.NoError(t, err)
	assert.Equal(t, t0+3*hour, b.Timestamp)

	_, err = r.NextAsync().Wait()
	assert.ErrorIs(t, err, ErrEndOfFile)

	b, err = r.PrevAsync().Wait()
	require.NoError(t, err)
	assert.Equal(t, t0+2*hour, b.Timestamp)

	b, err = r.LocateAsync(t0 + hour).Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, r.Index())
	assert.Equal(t, t0+hour, b.Timestamp)
}
