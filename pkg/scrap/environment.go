package scrap

import (
	"log/slog"
	"path/filepath"
	"strings"
)

const envPathKey = "PATH"

// CollectEnvUpdates builds the environment updates one installed version
// contributes: a PATH entry joining the resolved bin directories and the
// env map with ${dir} expanded to the absolute install directory.
func CollectEnvUpdates(bin []string, env map[string]string, installDir string) map[string]string {
	updates := make(map[string]string)
	if dirs := resolveBinDirs(bin, installDir); len(dirs) > 0 {
		updates[envPathKey] = joinPathList(dirs)
	}
	for key, value := range resolveEnv(env, installDir) {
		updates[key] = value
	}
	return updates
}

// resolveBinDirs turns the manifest's relative bin entries into absolute
// directories below the install dir.
func resolveBinDirs(bin []string, installDir string) []string {
	if len(bin) == 0 {
		return nil
	}
	dirs := make([]string, len(bin))
	for i, entry := range bin {
		dirs[i] = filepath.Join(installDir, entry)
	}
	return dirs
}

// resolveEnv expands ${dir} in the manifest's env values to the absolute
// install directory.
func resolveEnv(env map[string]string, installDir string) map[string]string {
	if len(env) == 0 {
		return nil
	}
	resolved := make(map[string]string, len(env))
	for key, value := range env {
		resolved[key] = ExpandVariables(value, map[string]string{"dir": installDir})
	}
	return resolved
}

func joinPathList(dirs []string) string {
	return strings.Join(dirs, string(filepath.ListSeparator))
}

// MergeEnvUpdates merges per-app env updates into one map. PATH
// contributions are concatenated in input order (empty ones skipped); any
// other key repeated with a different value is overwritten last-writer-wins
// with a warning.
func MergeEnvUpdates(updates []map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, env := range updates {
		for key, value := range env {
			switch {
			case key == envPathKey:
				if value == "" {
					continue
				}
				if existing := merged[key]; existing != "" {
					merged[key] = existing + string(filepath.ListSeparator) + value
				} else {
					merged[key] = value
				}
			default:
				if existing, ok := merged[key]; ok && existing != value {
					slog.Warn("conflicting env var, overwriting",
						"key", key, "old", existing, "new", value)
				}
				merged[key] = value
			}
		}
	}
	return merged
}

func effectiveBin(version *AppVersion, archive *Archive) []string {
	if archive != nil && archive.Bin != nil {
		return archive.Bin
	}
	return version.Bin
}

func effectiveEnv(version *AppVersion, archive *Archive) map[string]string {
	if archive != nil && archive.Env != nil {
		return archive.Env
	}
	return version.Env
}

func effectiveExtractDir(version *AppVersion, archive *Archive) string {
	if archive != nil && archive.ExtractDir != "" {
		return archive.ExtractDir
	}
	return version.ExtractDir
}
