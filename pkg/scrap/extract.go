package scrap

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bodgit/sevenzip"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/ulikunitz/xz"
)

type archiveFormat int

const (
	formatZip archiveFormat = iota
	formatTarGz
	formatTarXz
	formatTarBz2
	format7z
	formatConda
)

// Longer suffixes come first so ".tar.gz" is matched before a bare ".gz"
// style suffix could ever be.
var formatSuffixes = []struct {
	suffix string
	format archiveFormat
}{
	{".tar.gz", formatTarGz},
	{".tar.xz", formatTarXz},
	{".tar.bz2", formatTarBz2},
	{".conda", formatConda},
	{".tgz", formatTarGz},
	{".txz", formatTarXz},
	{".tbz2", formatTarBz2},
	{".zip", formatZip},
	{".7z", format7z},
}

func supportedSuffixes() []string {
	suffixes := make([]string, len(formatSuffixes))
	for i, entry := range formatSuffixes {
		suffixes[i] = entry.suffix
	}
	sort.Strings(suffixes)
	return suffixes
}

func detectFormat(archivePath string) (archiveFormat, error) {
	name := strings.ToLower(filepath.Base(archivePath))
	for _, entry := range formatSuffixes {
		if strings.HasSuffix(name, entry.suffix) {
			return entry.format, nil
		}
	}
	return 0, &UnsupportedFormatError{File: filepath.Base(archivePath)}
}

// ExtractOptions control archive extraction.
type ExtractOptions struct {
	// ExtractDir, when set, names a subdirectory of the extracted tree
	// whose contents are moved up into the destination afterwards.
	ExtractDir string
	// PokePrefix is the install path written into conda prefix patches.
	// It defaults to the destination directory; set it when extracting
	// into a staging directory that is renamed into place later.
	PokePrefix string
	// Name identifies the archive in progress updates.
	Name     string
	Progress ProgressFunc
}

// ExtractArchive extracts the archive into destDir and returns destDir.
// The format is detected from the filename suffix. Every entry is
// validated against path traversal before anything is written.
func ExtractArchive(archivePath, destDir string, opts ExtractOptions) (string, error) {
	format, err := detectFormat(archivePath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("error creating extraction target: %w", err)
	}

	switch format {
	case formatZip:
		err = extractZip(archivePath, destDir, opts.Name, opts.Progress)
	case formatTarGz, formatTarXz, formatTarBz2:
		err = extractCompressedTar(archivePath, destDir, format, opts.Name, opts.Progress)
	case format7z:
		err = extract7z(archivePath, destDir, opts.Name, opts.Progress)
	case formatConda:
		pokePrefix := opts.PokePrefix
		if pokePrefix == "" {
			pokePrefix = destDir
		}
		err = extractConda(archivePath, destDir, pokePrefix, opts.Name, opts.Progress)
	}
	if err != nil {
		return "", err
	}

	if opts.ExtractDir != "" {
		if err := relocateExtractDir(destDir, opts.ExtractDir); err != nil {
			return "", err
		}
	}
	return destDir, nil
}

// safeJoin resolves an archive entry name below destDir, rejecting
// absolute paths and anything that climbs out via "..". The final join is
// symlink-safe, so a previously extracted symlink can't redirect a later
// entry outside the target.
func safeJoin(destDir, entryName string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(entryName))
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" ||
		clean == ".." || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
		return "", &PathTraversalError{Entry: entryName}
	}
	target, err := securejoin.SecureJoin(destDir, clean)
	if err != nil {
		return "", &PathTraversalError{Entry: entryName}
	}
	return target, nil
}

func writeFileEntry(target string, mode fs.FileMode, content io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("error creating parent dir for '%s': %w", target, err)
	}
	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()|0o200)
	if err != nil {
		return fmt.Errorf("error creating '%s': %w", target, err)
	}
	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		return fmt.Errorf("error writing '%s': %w", target, err)
	}
	return file.Close()
}

func extractZip(archivePath, destDir, name string, progress ProgressFunc) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("error opening zip archive: %w", err)
	}
	defer reader.Close()

	total := int64(len(reader.File))
	for index, file := range reader.File {
		target, err := safeJoin(destDir, file.Name)
		if err != nil {
			return err
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("error creating directory '%s': %w", target, err)
			}
		} else {
			content, err := file.Open()
			if err != nil {
				return fmt.Errorf("error opening zip entry '%s': %w", file.Name, err)
			}
			err = writeFileEntry(target, file.Mode(), content)
			content.Close()
			if err != nil {
				return err
			}
		}

		if progress != nil {
			progress(name, int64(index)+1, total)
		}
	}
	return nil
}

func extractCompressedTar(archivePath, destDir string, format archiveFormat, name string, progress ProgressFunc) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("error opening archive: %w", err)
	}
	defer file.Close()

	var decompressed io.Reader
	switch format {
	case formatTarGz:
		gzipReader, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("error reading gzip stream: %w", err)
		}
		defer gzipReader.Close()
		decompressed = gzipReader
	case formatTarXz:
		xzReader, err := xz.NewReader(file)
		if err != nil {
			return fmt.Errorf("error reading xz stream: %w", err)
		}
		decompressed = xzReader
	case formatTarBz2:
		decompressed = bzip2.NewReader(file)
	}

	return extractTarStream(decompressed, destDir, name, progress)
}

// extractTarStream extracts a tar byte stream. Tar doesn't know its entry
// count up front, so progress totals are reported as unknown.
func extractTarStream(reader io.Reader, destDir, name string, progress ProgressFunc) error {
	tarReader := tar.NewReader(reader)
	var done int64
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading tar header: %w", err)
		}

		target, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("error creating directory '%s': %w", target, err)
			}
		case tar.TypeReg:
			if err := writeFileEntry(target, header.FileInfo().Mode(), tarReader); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := validateLinkTarget(destDir, header.Name, header.Linkname); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("error creating parent dir for '%s': %w", target, err)
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("error creating symlink '%s': %w", target, err)
			}
		case tar.TypeLink:
			// Hardlink names are archive-root-relative and must point at an
			// already-extracted entry.
			linkTarget, err := safeJoin(destDir, header.Linkname)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("error creating parent dir for '%s': %w", target, err)
			}
			if err := os.Link(linkTarget, target); err != nil {
				return fmt.Errorf("error creating hardlink '%s': %w", target, err)
			}
		default:
			// Devices, fifos and friends have no business in a package.
			continue
		}

		done++
		if progress != nil {
			progress(name, done, -1)
		}
	}
}

// validateLinkTarget rejects symlink entries whose target would point
// outside the extraction root.
func validateLinkTarget(destDir, entryName, linkName string) error {
	if filepath.IsAbs(linkName) || filepath.VolumeName(linkName) != "" {
		return &PathTraversalError{Entry: entryName}
	}
	resolved := filepath.Join(filepath.Dir(filepath.FromSlash(entryName)), filepath.FromSlash(linkName))
	if _, err := safeJoin(destDir, resolved); err != nil {
		return &PathTraversalError{Entry: entryName}
	}
	return nil
}

func extract7z(archivePath, destDir, name string, progress ProgressFunc) error {
	reader, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return wrap7zError(archivePath, err)
	}
	defer reader.Close()

	total := int64(len(reader.File))
	for index, file := range reader.File {
		target, err := safeJoin(destDir, file.Name)
		if err != nil {
			return err
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("error creating directory '%s': %w", target, err)
			}
		} else {
			content, err := file.Open()
			if err != nil {
				return wrap7zError(archivePath, err)
			}
			err = writeFileEntry(target, file.Mode(), content)
			content.Close()
			if err != nil {
				return err
			}
		}

		if progress != nil {
			progress(name, int64(index)+1, total)
		}
	}
	return nil
}

// wrap7zError turns an unsupported-compression-method failure into a
// message the user can act on instead of a bare decoder error.
func wrap7zError(archivePath string, err error) error {
	if strings.Contains(err.Error(), "unsupported") {
		return fmt.Errorf("cannot extract '%s': %w; try extracting it manually with 7-Zip",
			filepath.Base(archivePath), err)
	}
	return fmt.Errorf("error reading 7z archive '%s': %w", filepath.Base(archivePath), err)
}

// relocateExtractDir moves every child of destDir/extractDir up into
// destDir and removes the emptied subdirectory. The subdirectory is
// renamed aside first so that a child carrying the same name as its
// parent survives the move.
func relocateExtractDir(destDir, extractDir string) error {
	source, err := safeJoin(destDir, extractDir)
	if err != nil {
		return err
	}
	info, err := os.Stat(source)
	if err != nil || !info.IsDir() {
		return &ExtractDirNotFoundError{ExtractDir: extractDir}
	}

	staging := filepath.Join(filepath.Dir(source), ".relocate-"+filepath.Base(source))
	if err := os.Rename(source, staging); err != nil {
		return fmt.Errorf("error staging extract_dir: %w", err)
	}

	entries, err := os.ReadDir(staging)
	if err != nil {
		return fmt.Errorf("error reading extract_dir: %w", err)
	}
	for _, entry := range entries {
		if err := os.Rename(
			filepath.Join(staging, entry.Name()),
			filepath.Join(destDir, entry.Name()),
		); err != nil {
			return fmt.Errorf("error relocating '%s': %w", entry.Name(), err)
		}
	}
	if err := os.Remove(staging); err != nil {
		return fmt.Errorf("error removing emptied extract_dir: %w", err)
	}
	return nil
}
