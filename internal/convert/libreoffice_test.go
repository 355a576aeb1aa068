package convert

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLibreOfficeDefaults(t *testing.T) {
	lo := NewLibreOffice("", 0, 0)
	assert.Equal(t, "libreoffice", lo.Binary())
	assert.Equal(t, 180*time.Second, lo.timeout)
	assert.Equal(t, 1, cap(lo.semaphore))
}

func TestLibreOfficeMissingBinary(t *testing.T) {
	lo := NewLibreOffice("doctools-no-such-binary", time.Second, 1)
	assert.False(t, lo.Available())

	_, err := lo.ConvertDOCX(context.Background(), []byte("x"))
	assert.Error(t, err)

	_, err = lo.ConvertDOCX(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestLibreOfficeCancelledWhileWaiting(t *testing.T) {
	lo := NewLibreOffice("doctools-no-such-binary", time.Second, 1)
	lo.semaphore <- struct{}{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lo.ConvertDOCX(ctx, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCleanupTemps(t *testing.T) {
	dir, err := os.MkdirTemp("", tempPrefix+"test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(dir, old, old))

	assert.GreaterOrEqual(t, CleanupTemps(time.Hour), 1)
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	fresh, err := os.MkdirTemp("", tempPrefix+"test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(fresh) })
	CleanupTemps(time.Hour)
	_, err = os.Stat(filepath.Clean(fresh))
	assert.NoError(t, err)
}
