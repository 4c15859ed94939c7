package scrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// maxInstallWorkers bounds the number of apps installed concurrently. Each
// task performs its own network and filesystem I/O.
const maxInstallWorkers = 4

// InstalledApp is the result of installing (or finding installed) one app
// version: the absolute install directory plus the resolved PATH
// directories and environment variables a caller needs to use the tool.
type InstalledApp struct {
	Name       string            `json:"name"`
	Version    string            `json:"version"`
	Bucket     string            `json:"bucket,omitempty"`
	InstallDir string            `json:"install_dir"`
	BinDirs    []string          `json:"bin_dirs,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
}

func (a *InstalledApp) envUpdates() map[string]string {
	updates := make(map[string]string, len(a.Env)+1)
	if len(a.BinDirs) > 0 {
		updates[envPathKey] = joinPathList(a.BinDirs)
	}
	for key, value := range a.Env {
		updates[key] = value
	}
	return updates
}

// InstallResult holds the installed apps in config order, regardless of
// which parallel task finished first.
type InstallResult struct {
	Apps []InstalledApp
}

// BinDirs returns the de-duplicated union of all bin directories,
// preserving config order.
func (r *InstallResult) BinDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, app := range r.Apps {
		for _, dir := range app.BinDirs {
			if !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
		}
	}
	return dirs
}

// Env returns the merged environment updates of all installed apps: PATH
// contributions concatenated in config order, everything else
// last-writer-wins.
func (r *InstallResult) Env() map[string]string {
	updates := make([]map[string]string, len(r.Apps))
	for i := range r.Apps {
		updates[i] = r.Apps[i].envUpdates()
	}
	return MergeEnvUpdates(updates)
}

// receipt records which bucket an installed version came from, for later
// attribution by the list command.
type receipt struct {
	BucketID   string `json:"bucket_id,omitempty"`
	BucketName string `json:"bucket_name,omitempty"`
	BucketURL  string `json:"bucket_url,omitempty"`
}

type bucketSource struct {
	bucket Bucket
	dir    string
}

// Install installs every app of the config, in parallel where possible,
// and returns the results in config order. A failing app fails the whole
// run; a partially-applied environment would be misleading.
func (s *Scrap) Install(config *Config) (*InstallResult, error) {
	sources, err := s.prepareBuckets(config.Buckets)
	if err != nil {
		return nil, err
	}

	results := make([]*InstalledApp, len(config.Apps))
	var group errgroup.Group
	group.SetLimit(maxInstallWorkers)
	for i := range config.Apps {
		index, app := i, &config.Apps[i]
		group.Go(func() error {
			installed, err := s.installOne(app, sources)
			if err != nil {
				return fmt.Errorf("error installing '%s@%s': %w", app.Name, app.Version, err)
			}
			results[index] = installed
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	result := &InstallResult{}
	for _, installed := range results {
		if installed != nil {
			result.Apps = append(result.Apps, *installed)
		}
	}
	return result, nil
}

// prepareBuckets registers and syncs the config's buckets before the
// parallel phase starts; per-app tasks only read the resulting map.
func (s *Scrap) prepareBuckets(buckets []Bucket) (map[string]bucketSource, error) {
	registry := LoadRegistry(s.RegistryPath())
	registryChanged := false

	sources := make(map[string]bucketSource, len(buckets))
	for _, bucket := range buckets {
		if bucket.URL != "" {
			if bucket.ID == "" {
				bucket.ID = BucketID(bucket.URL)
			}
			registry.AddOrUpdate(bucket)
			registryChanged = true
		}

		dir := filepath.Join(s.BucketsDir(), bucket.DirName())
		if bucket.URL != "" {
			if err := s.Syncer.Sync(bucket.URL, dir); err != nil {
				return nil, fmt.Errorf("error syncing bucket '%s': %w", bucket.DirName(), err)
			}
		}

		source := bucketSource{bucket: bucket, dir: dir}
		for _, key := range []string{bucket.Name, bucket.ID, bucket.DirName()} {
			if key != "" {
				sources[key] = source
			}
		}
	}

	if registryChanged {
		if err := s.SaveRegistry(registry); err != nil {
			return nil, err
		}
	}
	return sources, nil
}

// installOne runs the per-app state machine. It returns (nil, nil) when
// the app is platform-filtered.
func (s *Scrap) installOne(app *App, sources map[string]bucketSource) (*InstalledApp, error) {
	if !app.SupportedOn(s.Platform) {
		slog.Info("skipping app, not supported on this platform",
			"app", app.Name, "platform", s.Platform.String())
		return nil, nil
	}

	source, ok := sources[app.Bucket]
	if !ok {
		return nil, fmt.Errorf("bucket '%s' is not configured", app.Bucket)
	}
	manifestPath, err := s.Syncer.FindManifest(app.Name, source.dir)
	if err != nil {
		return nil, fmt.Errorf("error finding manifest: %w", err)
	}
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	return s.installVersion(app.Name, app.Version, manifest, &source.bucket)
}

// installVersion materializes one app version on disk, or rebuilds the
// result from the persisted snapshot when the version is already
// installed. Extraction happens in a staging directory that is renamed
// into place only after the snapshot and receipt are written, so a crash
// never leaves a half-populated directory that would pass the idempotency
// check.
func (s *Scrap) installVersion(name, version string, manifest *Manifest, source *Bucket) (*InstalledApp, error) {
	appVersion := manifest.FindVersion(version)
	if appVersion == nil {
		return nil, &VersionNotFoundError{App: name, Version: version}
	}
	if appVersion.Yanked != "" {
		return nil, &VersionYankedError{App: name, Version: version, Reason: appVersion.Yanked}
	}

	installDir := filepath.Join(s.AppsDir(), name, version)
	if _, err := os.Stat(installDir); err == nil {
		slog.Info("already installed", "app", name, "version", version)
		return s.installedFromSnapshot(name, version, installDir, manifest), nil
	}

	archive, err := ResolveArchive(appVersion, s.Platform)
	if err != nil {
		return nil, err
	}
	url, err := ResolveDownloadURL(appVersion, archive)
	if err != nil {
		return nil, err
	}
	archivePath, err := GetCachedOrDownload(url, archive.SHA256, s.CacheDir(), name, s.DownloadProgress)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(installDir), 0o755); err != nil {
		return nil, fmt.Errorf("error creating app dir: %w", err)
	}
	staging, err := os.MkdirTemp(filepath.Dir(installDir), ".staging-"+version+"-")
	if err != nil {
		return nil, fmt.Errorf("error creating staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if _, err := ExtractArchive(archivePath, staging, ExtractOptions{
		ExtractDir: effectiveExtractDir(appVersion, archive),
		PokePrefix: installDir,
		Name:       name,
		Progress:   s.ExtractProgress,
	}); err != nil {
		return nil, err
	}

	if err := manifest.Save(filepath.Join(staging, manifestSnapshotName)); err != nil {
		return nil, err
	}
	if err := writeJSONFile(filepath.Join(staging, receiptName), receiptFor(source)); err != nil {
		return nil, err
	}
	if err := os.Rename(staging, installDir); err != nil {
		return nil, fmt.Errorf("error moving staged install into place: %w", err)
	}

	slog.Info("installed", "app", name, "version", version)
	return s.newInstalledApp(name, version, installDir, appVersion, archive, source), nil
}

func receiptFor(source *Bucket) receipt {
	if source == nil {
		return receipt{}
	}
	return receipt{
		BucketID:   source.ID,
		BucketName: source.Name,
		BucketURL:  source.URL,
	}
}

// installedFromSnapshot rebuilds the install result without touching the
// network: a pre-existing apps/<name>/<version> directory is trusted
// as-is. The freshly loaded manifest only serves as fallback when the
// snapshot is unreadable.
func (s *Scrap) installedFromSnapshot(name, version, installDir string, fallback *Manifest) *InstalledApp {
	manifest, err := LoadManifest(filepath.Join(installDir, manifestSnapshotName))
	if err != nil {
		slog.Warn("unreadable manifest snapshot, using bucket manifest",
			"app", name, "version", version, "error", err)
		manifest = fallback
	}

	app := &InstalledApp{Name: name, Version: version, InstallDir: installDir}
	var rcpt receipt
	if err := readJSONFile(filepath.Join(installDir, receiptName), &rcpt); err == nil {
		app.Bucket = rcpt.BucketName
		if app.Bucket == "" {
			app.Bucket = rcpt.BucketID
		}
	}

	appVersion := manifest.FindVersion(version)
	if appVersion == nil {
		return app
	}
	archive, _ := ResolveArchive(appVersion, s.Platform)
	app.BinDirs = resolveBinDirs(effectiveBin(appVersion, archive), installDir)
	app.Env = resolveEnv(effectiveEnv(appVersion, archive), installDir)
	return app
}

func (s *Scrap) newInstalledApp(name, version, installDir string, appVersion *AppVersion, archive *Archive, source *Bucket) *InstalledApp {
	app := &InstalledApp{
		Name:       name,
		Version:    version,
		InstallDir: installDir,
		BinDirs:    resolveBinDirs(effectiveBin(appVersion, archive), installDir),
		Env:        resolveEnv(effectiveEnv(appVersion, archive), installDir),
	}
	if source != nil {
		app.Bucket = source.Name
		if app.Bucket == "" {
			app.Bucket = source.ID
		}
	}
	return app
}

// IsBucketURL reports whether the value looks like a repository URL rather
// than a bucket name.
func IsBucketURL(value string) bool {
	return strings.Contains(value, "://") || strings.HasSuffix(value, ".git")
}

// InstallApp installs a single app version. bucketRef may be a repository
// URL (synced ad hoc and remembered in the registry), the name of a known
// bucket, or empty to search all local buckets for the manifest.
func (s *Scrap) InstallApp(name, version, bucketRef string) (*InstalledApp, error) {
	bucket, err := s.resolveBucketRef(name, bucketRef)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Buckets: []Bucket{bucket},
		Apps:    []App{{Name: name, Version: version, Bucket: bucket.DirName()}},
	}
	result, err := s.Install(config)
	if err != nil {
		return nil, err
	}
	if len(result.Apps) != 1 {
		return nil, fmt.Errorf("expected exactly one installed app, got %d", len(result.Apps))
	}
	return &result.Apps[0], nil
}

func (s *Scrap) resolveBucketRef(appName, bucketRef string) (Bucket, error) {
	if bucketRef == "" {
		bucketName, err := s.findLocalBucketFor(appName)
		if err != nil {
			return Bucket{}, err
		}
		return Bucket{Name: bucketName}, nil
	}

	if IsBucketURL(bucketRef) {
		return Bucket{URL: bucketRef, ID: BucketID(bucketRef)}, nil
	}

	registry := LoadRegistry(s.RegistryPath())
	if known := registry.GetByName(bucketRef); known != nil {
		return *known, nil
	}
	if _, err := os.Stat(filepath.Join(s.BucketsDir(), bucketRef)); err == nil {
		return Bucket{Name: bucketRef}, nil
	}
	return Bucket{}, fmt.Errorf("bucket '%s' not found; pass a bucket URL to clone it", bucketRef)
}

func (s *Scrap) findLocalBucketFor(appName string) (string, error) {
	entries, err := os.ReadDir(s.BucketsDir())
	if err != nil || len(entries) == 0 {
		return "", fmt.Errorf("no local buckets available; pass a bucket name or URL")
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest := filepath.Join(s.BucketsDir(), entry.Name(), appName+".json")
		if _, err := os.Stat(manifest); err == nil {
			return entry.Name(), nil
		}
	}
	return "", fmt.Errorf("manifest '%s.json' not found in any local bucket", appName)
}

// InstallFromManifest installs directly from a manifest file, bypassing
// buckets entirely. The receipt's bucket fields stay unknown.
func (s *Scrap) InstallFromManifest(manifestPath, version string) (*InstalledApp, error) {
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(manifestPath), ".json")
	installed, err := s.installVersion(name, version, manifest, nil)
	if err != nil {
		return nil, fmt.Errorf("error installing '%s@%s': %w", name, version, err)
	}
	return installed, nil
}
