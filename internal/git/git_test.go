package git_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuinixam/scrap/internal/git"
	"github.com/stretchr/testify/require"
)

func Test_FindManifest(t *testing.T) {
	bucketDir := t.TempDir()
	manifestPath := filepath.Join(bucketDir, "tool.json")
	require.NoError(t, os.WriteFile(manifestPath, []byte("{}"), 0o644))

	syncer := git.Syncer{}

	found, err := syncer.FindManifest("tool", bucketDir)
	require.NoError(t, err)
	require.Equal(t, manifestPath, found)

	_, err = syncer.FindManifest("missing", bucketDir)
	require.ErrorContains(t, err, "missing")
}

func Test_Update_NotARepository(t *testing.T) {
	err := git.Syncer{}.Update(t.TempDir())
	require.ErrorContains(t, err, "error opening bucket")
}

func Test_Sync_ExistingDirTakesUpdatePath(t *testing.T) {
	// A pre-existing directory is treated as a checkout; a plain directory
	// is not one, so the fast-forward fails instead of re-cloning over it.
	dir := t.TempDir()
	err := git.Syncer{}.Sync("https://example.com/repo.git", dir)
	require.ErrorContains(t, err, "error opening bucket")
}
