package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileCheckpointer_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "checkpoints")
	cp := NewFileCheckpointer(dir, zap.NewNop())

	loaded, err := cp.Load(ctx, "gw")
	require.NoError(t, err)
	assert.Nil(t, loaded, "missing checkpoint is not an error")

	require.NoError(t, cp.Save(ctx, &Checkpoint{Name: "gw", Cursor: 42, Timestamp: time.Now()}))
	require.NoError(t, cp.Save(ctx, &Checkpoint{Name: "gw", Cursor: 57, Timestamp: time.Now()}))

	loaded, err = cp.Load(ctx, "gw")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, uint64(57), loaded.Cursor)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	require.NoError(t, cp.Delete(ctx, "gw"))
	require.NoError(t, cp.Delete(ctx, "gw"))
	loaded, err = cp.Load(ctx, "gw")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileCheckpointer_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gw.checkpoint"), []byte("{"), 0644))

	_, err := NewFileCheckpointer(dir, nil).Load(context.Background(), "gw")
	assert.Error(t, err)
}

func TestCheckpointName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://192.168.4.1", "192.168.4.1"},
		{"https://gw.local:8443/", "gw.local_8443"},
		{"http://gw.local/base", "gw.local_base"},
		{"", "default"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CheckpointName(tt.in), tt.in)
	}
}

func TestNoopCheckpointer(t *testing.T) {
	var cp Checkpointer = &NoopCheckpointer{}
	require.NoError(t, cp.Save(context.Background(), &Checkpoint{Name: "x", Cursor: 1}))
	loaded, err := cp.Load(context.Background(), "x")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
