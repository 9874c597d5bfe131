package filestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/halewood/mediasearch/internal/config"
)

func TestNew_EmptyTypeMeansNoMirror(t *testing.T) {
	store, err := New(config.MirrorConfig{})
	require.NoError(t, err)
	require.Nil(t, store)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(config.MirrorConfig{Type: "ftp"})
	require.Error(t, err)
}

func TestLocalStore_SaveCreatesNestedDirs(t *testing.T) {
	dir := t.TempDir()
	store, err := New(config.MirrorConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": dir},
	})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())

	err = store.Save(context.Background(), "NASA/mp4/vid.mp4", strings.NewReader("payload"), 7)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "NASA", "mp4", "vid.mp4"))
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
}

func TestLocalStore_RequiresDir(t *testing.T) {
	_, err := New(config.MirrorConfig{
		Type: "local",
		Data: map[string]interface{}{},
	})
	require.Error(t, err)
}
