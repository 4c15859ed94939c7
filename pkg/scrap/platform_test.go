package scrap_test

import (
	"runtime"
	"testing"

	"github.com/cuinixam/scrap/pkg/scrap"
	"github.com/stretchr/testify/require"
)

func Test_CurrentPlatform(t *testing.T) {
	platform, err := scrap.CurrentPlatform()
	if err != nil {
		t.Skipf("host platform %s/%s has no manifest mapping", runtime.GOOS, runtime.GOARCH)
	}

	require.Contains(t, []string{"windows", "linux", "macos"}, platform.OS)
	require.Contains(t, []string{"x86_64", "aarch64"}, platform.Arch)
	require.Equal(t, platform.OS+"/"+platform.Arch, platform.String())
}

func Test_App_SupportedOn(t *testing.T) {
	linux := scrap.Platform{OS: "linux", Arch: "x86_64"}

	t.Run("no filters allow everything", func(t *testing.T) {
		app := &scrap.App{Name: "tool"}
		require.True(t, app.SupportedOn(linux))
	})
	t.Run("os filter", func(t *testing.T) {
		app := &scrap.App{Name: "tool", OS: []string{"windows", "macos"}}
		require.False(t, app.SupportedOn(linux))

		app.OS = append(app.OS, "linux")
		require.True(t, app.SupportedOn(linux))
	})
	t.Run("arch filter", func(t *testing.T) {
		app := &scrap.App{Name: "tool", Arch: []string{"aarch64"}}
		require.False(t, app.SupportedOn(linux))
	})
	t.Run("both filters must allow", func(t *testing.T) {
		app := &scrap.App{Name: "tool", OS: []string{"linux"}, Arch: []string{"aarch64"}}
		require.False(t, app.SupportedOn(linux))
	})
}

func Test_LoadConfig(t *testing.T) {
	config := &scrap.Config{
		Buckets: []scrap.Bucket{{URL: "https://example.com/bucket", Name: "tools"}},
		Apps: []scrap.App{
			{Name: "alpha", Version: "1.0.0", Bucket: "tools", OS: []string{"linux"}},
		},
	}

	path := t.TempDir() + "/scrap.json"
	require.NoError(t, config.Save(path))

	loaded, err := scrap.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, config, loaded)
}
