package scrap_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/cuinixam/scrap/pkg/scrap"
	"github.com/stretchr/testify/require"
)

func Test_CollectEnvUpdates(t *testing.T) {
	installDir := filepath.Join("root", "apps", "tool", "1.0.0")

	t.Run("bin entries become a PATH value", func(t *testing.T) {
		updates := scrap.CollectEnvUpdates([]string{"bin", "libexec"}, nil, installDir)

		expected := filepath.Join(installDir, "bin") +
			string(filepath.ListSeparator) +
			filepath.Join(installDir, "libexec")
		require.Equal(t, map[string]string{"PATH": expected}, updates)
	})
	t.Run("dir placeholder is expanded in env values", func(t *testing.T) {
		updates := scrap.CollectEnvUpdates(nil,
			map[string]string{"TOOL_HOME": "${dir}", "TOOL_MODE": "fast"}, installDir)

		require.Equal(t, installDir, updates["TOOL_HOME"])
		require.Equal(t, "fast", updates["TOOL_MODE"])
	})
	t.Run("no bin means no PATH key", func(t *testing.T) {
		updates := scrap.CollectEnvUpdates(nil, map[string]string{"A": "1"}, installDir)
		require.NotContains(t, updates, "PATH")
	})
}

func Test_MergeEnvUpdates(t *testing.T) {
	t.Run("merging nothing yields an empty map", func(t *testing.T) {
		merged := scrap.MergeEnvUpdates(nil)
		require.NotNil(t, merged)
		require.Empty(t, merged)
	})
	t.Run("path entries are concatenated in order", func(t *testing.T) {
		merged := scrap.MergeEnvUpdates([]map[string]string{
			{"PATH": "/a"},
			{"PATH": ""},
			{"PATH": "/b"},
		})

		require.Equal(t, strings.Join([]string{"/a", "/b"}, string(filepath.ListSeparator)), merged["PATH"])
	})
	t.Run("other keys are last writer wins", func(t *testing.T) {
		merged := scrap.MergeEnvUpdates([]map[string]string{
			{"JAVA_HOME": "/jdk11"},
			{"JAVA_HOME": "/jdk17"},
		})

		require.Equal(t, "/jdk17", merged["JAVA_HOME"])
	})
	t.Run("identical values are not a conflict", func(t *testing.T) {
		merged := scrap.MergeEnvUpdates([]map[string]string{
			{"LANG": "C"},
			{"LANG": "C"},
		})

		require.Equal(t, "C", merged["LANG"])
	})
}
