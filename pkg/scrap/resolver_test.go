package scrap_test

import (
	"testing"

	"github.com/cuinixam/scrap/pkg/scrap"
	"github.com/stretchr/testify/require"
)

func Test_ExpandVariables(t *testing.T) {
	t.Run("known keys are substituted", func(t *testing.T) {
		result := scrap.ExpandVariables("https://host/${version}/${os}-${arch}.zip",
			map[string]string{"version": "1.2.3", "os": "linux", "arch": "x86_64"})
		require.Equal(t, "https://host/1.2.3/linux-x86_64.zip", result)
	})
	t.Run("unknown keys stay verbatim", func(t *testing.T) {
		result := scrap.ExpandVariables("path/${unknown}/file", map[string]string{"known": "x"})
		require.Equal(t, "path/${unknown}/file", result)
	})
	t.Run("substituted values are not expanded again", func(t *testing.T) {
		result := scrap.ExpandVariables("${a}", map[string]string{
			"a": "${b}",
			"b": "oops",
		})
		require.Equal(t, "${b}", result)
	})
	t.Run("malformed placeholders are untouched", func(t *testing.T) {
		require.Equal(t, "${}", scrap.ExpandVariables("${}", map[string]string{"": "x"}))
		require.Equal(t, "$version", scrap.ExpandVariables("$version", map[string]string{"version": "1"}))
	})
}

func Test_ResolveArchive(t *testing.T) {
	version := &scrap.AppVersion{
		Version: "1.0.0",
		Archives: []scrap.Archive{
			{OS: "linux", Arch: "x86_64", SHA256: "aa"},
			{OS: "linux", Arch: "aarch64", SHA256: "bb"},
			{OS: "windows", Arch: "x86_64", SHA256: "cc"},
		},
	}

	t.Run("exact match", func(t *testing.T) {
		archive, err := scrap.ResolveArchive(version, scrap.Platform{OS: "linux", Arch: "aarch64"})
		require.NoError(t, err)
		require.Equal(t, "bb", archive.SHA256)
	})
	t.Run("no match lists supported platforms", func(t *testing.T) {
		_, err := scrap.ResolveArchive(version, scrap.Platform{OS: "macos", Arch: "x86_64"})

		var unsupported *scrap.PlatformUnsupportedError
		require.ErrorAs(t, err, &unsupported)
		require.Equal(t, "macos", unsupported.OS)
		require.Len(t, unsupported.Supported, 3)
		require.Contains(t, err.Error(), "windows/x86_64")
	})
}

func Test_ResolveDownloadURL(t *testing.T) {
	t.Run("archive url wins over version url", func(t *testing.T) {
		version := &scrap.AppVersion{Version: "2.0", URL: "https://fallback/${version}"}
		archive := &scrap.Archive{OS: "linux", Arch: "x86_64", URL: "https://host/${version}/${os}-${arch}"}

		url, err := scrap.ResolveDownloadURL(version, archive)
		require.NoError(t, err)
		require.Equal(t, "https://host/2.0/linux-x86_64", url)
	})
	t.Run("version url is the fallback", func(t *testing.T) {
		version := &scrap.AppVersion{Version: "2.0", URL: "https://fallback/${version}.${ext}"}
		archive := &scrap.Archive{OS: "linux", Arch: "x86_64", Ext: "tar.gz"}

		url, err := scrap.ResolveDownloadURL(version, archive)
		require.NoError(t, err)
		require.Equal(t, "https://fallback/2.0.tar.gz", url)
	})
	t.Run("ext placeholder stays when archive has no ext", func(t *testing.T) {
		version := &scrap.AppVersion{Version: "2.0", URL: "https://fallback/${version}.${ext}"}
		archive := &scrap.Archive{OS: "linux", Arch: "x86_64"}

		url, err := scrap.ResolveDownloadURL(version, archive)
		require.NoError(t, err)
		require.Equal(t, "https://fallback/2.0.${ext}", url)
	})
	t.Run("no url anywhere", func(t *testing.T) {
		version := &scrap.AppVersion{Version: "2.0"}
		archive := &scrap.Archive{OS: "linux", Arch: "x86_64"}

		_, err := scrap.ResolveDownloadURL(version, archive)
		require.ErrorIs(t, err, scrap.ErrNoDownloadURL)
	})
}
