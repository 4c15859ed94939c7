package scrap

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoDownloadURL indicates that neither the archive nor its version
// carries a URL template.
var ErrNoDownloadURL = errors.New("no download url: the archive has no url and the version has no root url template")

// PlatformUnsupportedError is returned when a version has no archive for
// the requested platform. It lists what the version actually supports, so
// the user can tell whether the manifest or the machine is at fault.
type PlatformUnsupportedError struct {
	OS        string
	Arch      string
	Supported []Platform
}

func (err *PlatformUnsupportedError) Error() string {
	pairs := make([]string, len(err.Supported))
	for i, platform := range err.Supported {
		pairs[i] = platform.OS + "/" + platform.Arch
	}
	return fmt.Sprintf("no archive for platform %s/%s; supported: [%s]",
		err.OS, err.Arch, strings.Join(pairs, ", "))
}

// ChecksumMismatchError is returned when a file's SHA-256 digest doesn't
// match the digest declared in the manifest.
type ChecksumMismatchError struct {
	File     string
	Expected string
	Actual   string
}

func (err *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("sha256 mismatch for '%s': expected %s, got %s",
		err.File, err.Expected, err.Actual)
}

// DownloadError wraps a transport failure, preserving the cause.
type DownloadError struct {
	URL string
	Err error
}

func (err *DownloadError) Error() string {
	return fmt.Sprintf("failed to download '%s': %s", err.URL, err.Err)
}

func (err *DownloadError) Unwrap() error {
	return err.Err
}

// UnsupportedFormatError is returned for archives whose filename suffix
// matches none of the known formats.
type UnsupportedFormatError struct {
	File string
}

func (err *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported archive format: '%s'; supported: %s",
		err.File, strings.Join(supportedSuffixes(), ", "))
}

// PathTraversalError is returned when an archive entry (or an extract_dir
// value) would resolve outside the extraction target.
type PathTraversalError struct {
	Entry string
}

func (err *PathTraversalError) Error() string {
	return fmt.Sprintf("path traversal detected in archive entry: '%s'", err.Entry)
}

// InvalidCondaArchiveError is returned for .conda files missing the
// mandatory pkg-*.tar.zst payload or otherwise malformed.
type InvalidCondaArchiveError struct {
	File   string
	Reason string
}

func (err *InvalidCondaArchiveError) Error() string {
	return fmt.Sprintf("invalid .conda archive '%s': %s", err.File, err.Reason)
}

// ExtractDirNotFoundError is returned when the manifest names an
// extract_dir that doesn't exist in the extracted tree.
type ExtractDirNotFoundError struct {
	ExtractDir string
}

func (err *ExtractDirNotFoundError) Error() string {
	return fmt.Sprintf("extract_dir '%s' not found in extracted archive", err.ExtractDir)
}

// PrefixTooLongError is returned when a binary patch can't be applied
// because the install path is longer than the build-time placeholder. The
// target file is left unmodified.
type PrefixTooLongError struct {
	File           string
	PrefixLen      int
	PlaceholderLen int
}

func (err *PrefixTooLongError) Error() string {
	return fmt.Sprintf("cannot patch '%s': install path (%d bytes) exceeds placeholder (%d bytes)",
		err.File, err.PrefixLen, err.PlaceholderLen)
}

// VersionNotFoundError is returned when the requested version isn't listed
// in the manifest.
type VersionNotFoundError struct {
	App     string
	Version string
}

func (err *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %s not found for app '%s'", err.Version, err.App)
}

// VersionYankedError is returned when the requested version has been
// withdrawn. Installation is refused.
type VersionYankedError struct {
	App     string
	Version string
	Reason  string
}

func (err *VersionYankedError) Error() string {
	return fmt.Sprintf("version %s of '%s' is yanked: %s", err.Version, err.App, err.Reason)
}

// NotInstalledError is returned when an uninstall target doesn't exist.
type NotInstalledError struct {
	App     string
	Version string
}

func (err *NotInstalledError) Error() string {
	if err.Version != "" {
		return fmt.Sprintf("app '%s@%s' is not installed", err.App, err.Version)
	}
	return fmt.Sprintf("app '%s' is not installed", err.App)
}
