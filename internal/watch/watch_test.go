package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInbox_RequiresSettle(t *testing.T) {
	_, err := NewInbox(0)
	require.Error(t, err)
}

func TestBatches_GroupsSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	in, err := NewInbox(150 * time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = in.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches, err := in.Batches(ctx, dir)
	require.NoError(t, err)

	for _, name := range []string{"matricula.pdf", "notas.txt", "contrato.PDF"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF"), 0o600))
	}

	select {
	case batch := <-batches:
		assert.Equal(t, []string{
			filepath.Join(dir, "contrato.PDF"),
			filepath.Join(dir, "matricula.pdf"),
		}, batch)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch received")
	}
}

func TestBatches_ClosesOnCancel(t *testing.T) {
	in, err := NewInbox(50 * time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = in.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	batches, err := in.Batches(ctx, t.TempDir())
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-batches:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestBatches_MissingDir(t *testing.T) {
	in, err := NewInbox(time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = in.Close() })

	_, err = in.Batches(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
