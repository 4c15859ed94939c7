package scrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Bios-Marcel/versioncmp"
	gitsync "github.com/cuinixam/scrap/internal/git"
)

const (
	manifestSnapshotName = ".manifest.json"
	receiptName          = ".receipt.json"
	registryName         = "buckets.json"
)

// Syncer is the bucket collaborator: it materializes a bucket repository
// locally and locates manifests inside it. The default implementation is
// Git-backed; tests substitute their own.
type Syncer interface {
	// Sync clones the repository at url into localPath, or fast-forwards
	// it when already present.
	Sync(url, localPath string) error
	// Update fast-forwards an already-synced bucket.
	Update(localPath string) error
	// FindManifest returns the path of the manifest for the given app
	// inside a synced bucket directory.
	FindManifest(appName, bucketDir string) (string, error)
}

// Scrap is the package manager root object. All state lives below rootDir:
// apps/, buckets/, cache/ and the bucket registry file.
type Scrap struct {
	rootDir string

	// Platform is the platform archives are resolved against. New fills
	// it with the detected host platform.
	Platform Platform
	// Syncer materializes buckets. New wires the Git-backed default.
	Syncer Syncer
	// DownloadProgress and ExtractProgress, when set, receive concurrent
	// progress updates during installs.
	DownloadProgress ProgressFunc
	ExtractProgress  ProgressFunc
}

// New creates a Scrap instance rooted at rootDir with the detected host
// platform and the Git-backed bucket syncer.
func New(rootDir string) (*Scrap, error) {
	platform, err := CurrentPlatform()
	if err != nil {
		return nil, err
	}
	return &Scrap{
		rootDir:  rootDir,
		Platform: platform,
		Syncer:   gitsync.Syncer{},
	}, nil
}

// DefaultRootDir is $SCRAP_ROOT when set, otherwise ~/.scrap.
func DefaultRootDir() (string, error) {
	if root := os.Getenv("SCRAP_ROOT"); root != "" {
		return root, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}
	return filepath.Join(home, ".scrap"), nil
}

func (s *Scrap) RootDir() string {
	return s.rootDir
}

func (s *Scrap) AppsDir() string {
	return filepath.Join(s.rootDir, "apps")
}

func (s *Scrap) BucketsDir() string {
	return filepath.Join(s.rootDir, "buckets")
}

func (s *Scrap) CacheDir() string {
	return filepath.Join(s.rootDir, "cache")
}

func (s *Scrap) RegistryPath() string {
	return filepath.Join(s.rootDir, registryName)
}

// registryMutex serializes registry writes within the process. The
// registry is only ever mutated before an install's parallel phase.
var registryMutex sync.Mutex

// SaveRegistry persists the registry under the process-wide lock.
func (s *Scrap) SaveRegistry(registry *BucketRegistry) error {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	if err := os.MkdirAll(s.rootDir, 0o755); err != nil {
		return fmt.Errorf("error creating root dir: %w", err)
	}
	return registry.Save(s.RegistryPath())
}

// ListInstalled scans the two-level apps/<name>/<version> tree and
// reconstructs an InstalledApp per version from the persisted manifest
// snapshot and receipt. A missing or unreadable snapshot degrades to a
// bare entry instead of failing the whole listing.
func (s *Scrap) ListInstalled() ([]InstalledApp, error) {
	appEntries, err := os.ReadDir(s.AppsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading apps dir: %w", err)
	}

	var installed []InstalledApp
	for _, appEntry := range appEntries {
		if !appEntry.IsDir() {
			continue
		}
		name := appEntry.Name()
		versionEntries, err := os.ReadDir(filepath.Join(s.AppsDir(), name))
		if err != nil {
			return nil, fmt.Errorf("error reading versions of '%s': %w", name, err)
		}

		versions := make([]string, 0, len(versionEntries))
		for _, versionEntry := range versionEntries {
			if versionEntry.IsDir() {
				versions = append(versions, versionEntry.Name())
			}
		}
		// Compare returns the greater of the two versions.
		sort.Slice(versions, func(i, j int) bool {
			return versioncmp.Compare(versions[i], versions[j],
				versioncmp.VersionCompareRules{}) == versions[j]
		})

		for _, version := range versions {
			installed = append(installed, s.readInstalled(name, version))
		}
	}
	return installed, nil
}

func (s *Scrap) readInstalled(name, version string) InstalledApp {
	installDir := filepath.Join(s.AppsDir(), name, version)
	app := InstalledApp{Name: name, Version: version, InstallDir: installDir}

	var rcpt receipt
	if err := readJSONFile(filepath.Join(installDir, receiptName), &rcpt); err == nil {
		app.Bucket = rcpt.BucketName
		if app.Bucket == "" {
			app.Bucket = rcpt.BucketID
		}
	}

	manifest, err := LoadManifest(filepath.Join(installDir, manifestSnapshotName))
	if err != nil {
		slog.Warn("no readable manifest snapshot, listing bare entry",
			"app", name, "version", version, "error", err)
		return app
	}
	appVersion := manifest.FindVersion(version)
	if appVersion == nil {
		slog.Warn("version missing from manifest snapshot, listing bare entry",
			"app", name, "version", version)
		return app
	}

	// The stored snapshot is all we have; if it no longer matches the
	// platform we fall back to the version-level values.
	archive, _ := ResolveArchive(appVersion, s.Platform)
	app.BinDirs = resolveBinDirs(effectiveBin(appVersion, archive), installDir)
	app.Env = resolveEnv(effectiveEnv(appVersion, archive), installDir)
	return app
}

// Uninstall removes an installed version, or every version of an app when
// version is empty. Removing the last version prunes the app directory.
func (s *Scrap) Uninstall(name, version string) error {
	appDir := filepath.Join(s.AppsDir(), name)

	if version == "" {
		if _, err := os.Stat(appDir); err != nil {
			return &NotInstalledError{App: name}
		}
		if err := os.RemoveAll(appDir); err != nil {
			return fmt.Errorf("error removing '%s': %w", name, err)
		}
		return nil
	}

	versionDir := filepath.Join(appDir, version)
	if _, err := os.Stat(versionDir); err != nil {
		return &NotInstalledError{App: name, Version: version}
	}
	if err := os.RemoveAll(versionDir); err != nil {
		return fmt.Errorf("error removing '%s@%s': %w", name, version, err)
	}

	if remaining, err := os.ReadDir(appDir); err == nil && len(remaining) == 0 {
		if err := os.Remove(appDir); err != nil {
			return fmt.Errorf("error removing emptied app dir: %w", err)
		}
	}
	return nil
}

// UninstallAll removes every installed app. An empty tree is a no-op.
// With wipeCache the download cache is deleted too.
func (s *Scrap) UninstallAll(wipeCache bool) error {
	entries, err := os.ReadDir(s.AppsDir())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error reading apps dir: %w", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(s.AppsDir(), entry.Name())); err != nil {
			return fmt.Errorf("error removing '%s': %w", entry.Name(), err)
		}
	}
	if wipeCache {
		if err := os.RemoveAll(s.CacheDir()); err != nil {
			return fmt.Errorf("error wiping cache: %w", err)
		}
	}
	return nil
}

// WipeCache deletes the download cache directory.
func (s *Scrap) WipeCache() error {
	if err := os.RemoveAll(s.CacheDir()); err != nil {
		return fmt.Errorf("error wiping cache: %w", err)
	}
	return nil
}

// Search returns the sorted, de-duplicated manifest names across all local
// buckets whose name contains the query, case-insensitively. With
// updateFirst every local bucket is fast-forwarded beforehand.
func (s *Scrap) Search(query string, updateFirst bool) ([]string, error) {
	bucketEntries, err := os.ReadDir(s.BucketsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading buckets dir: %w", err)
	}

	loweredQuery := strings.ToLower(query)
	seen := make(map[string]bool)
	var matches []string
	for _, bucketEntry := range bucketEntries {
		if !bucketEntry.IsDir() {
			continue
		}
		bucketDir := filepath.Join(s.BucketsDir(), bucketEntry.Name())
		if updateFirst {
			if err := s.Syncer.Update(bucketDir); err != nil {
				slog.Warn("error updating bucket", "bucket", bucketEntry.Name(), "error", err)
			}
		}

		manifests, err := os.ReadDir(bucketDir)
		if err != nil {
			return nil, fmt.Errorf("error reading bucket '%s': %w", bucketEntry.Name(), err)
		}
		for _, manifestEntry := range manifests {
			manifestName := manifestEntry.Name()
			if manifestEntry.IsDir() || !strings.HasSuffix(manifestName, ".json") {
				continue
			}
			appName := strings.TrimSuffix(manifestName, ".json")
			if seen[appName] || !strings.Contains(strings.ToLower(appName), loweredQuery) {
				continue
			}
			seen[appName] = true
			matches = append(matches, appName)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// ParseAppSpec splits "name@version" into its fragments. The version may
// be empty.
func ParseAppSpec(spec string) (string, string) {
	if separator := strings.LastIndexByte(spec, '@'); separator != -1 {
		return spec[:separator], spec[separator+1:]
	}
	return spec, ""
}
