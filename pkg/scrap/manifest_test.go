package scrap_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuinixam/scrap/pkg/scrap"
	"github.com/stretchr/testify/require"
)

func Test_LoadManifest(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		manifest := &scrap.Manifest{
			Description:   "some tool",
			SchemaVersion: scrap.DefaultSchemaVersion,
			Versions: []scrap.AppVersion{
				{
					Version: "1.0.0",
					URL:     "https://host/${version}/tool-${os}-${arch}.tar.gz",
					Bin:     []string{"bin"},
					Env:     map[string]string{"TOOL_HOME": "${dir}"},
					Archives: []scrap.Archive{
						{OS: "linux", Arch: "x86_64", SHA256: "aa"},
					},
				},
				{
					Version: "0.9.0",
					Yanked:  "broken release",
					Archives: []scrap.Archive{
						{OS: "linux", Arch: "x86_64", SHA256: "bb"},
					},
				},
			},
		}

		path := filepath.Join(t.TempDir(), "tool.json")
		require.NoError(t, manifest.Save(path))

		loaded, err := scrap.LoadManifest(path)
		require.NoError(t, err)
		require.Equal(t, manifest, loaded)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := scrap.LoadManifest(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})
	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		_, err := scrap.LoadManifest(path)
		require.Error(t, err)
	})
	t.Run("unset optional fields are omitted", func(t *testing.T) {
		manifest := &scrap.Manifest{
			Description: "bare",
			Versions: []scrap.AppVersion{
				{Version: "1.0.0", Archives: []scrap.Archive{{OS: "linux", Arch: "x86_64", SHA256: "aa"}}},
			},
		}
		path := filepath.Join(t.TempDir(), "bare.json")
		require.NoError(t, manifest.Save(path))

		data := readFileString(t, path)
		require.NotContains(t, data, "yanked")
		require.NotContains(t, data, "extract_dir")
		require.NotContains(t, data, "schema_version")
	})
}

func Test_FindVersion(t *testing.T) {
	manifest := &scrap.Manifest{
		Versions: []scrap.AppVersion{
			{Version: "1.0.0"},
			{Version: "2.0.0"},
		},
	}

	require.NotNil(t, manifest.FindVersion("2.0.0"))
	require.Equal(t, "2.0.0", manifest.FindVersion("2.0.0").Version)
	require.Nil(t, manifest.FindVersion("3.0.0"))
	// Version strings are opaque, "1.0" does not match "1.0.0".
	require.Nil(t, manifest.FindVersion("1.0"))
}
