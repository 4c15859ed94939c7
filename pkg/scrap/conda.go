package scrap

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// A .conda file is a zip with exactly one pkg-*.tar.zst member carrying
// the actual payload and optionally one info-*.tar.zst member carrying
// package metadata. The metadata's paths.json lists the files whose
// build-time install prefix must be rewritten after extraction.

func extractConda(archivePath, destDir, pokePrefix, name string, progress ProgressFunc) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return &InvalidCondaArchiveError{
			File:   filepath.Base(archivePath),
			Reason: fmt.Sprintf("not a readable zip container: %s", err),
		}
	}
	defer reader.Close()

	var pkgMember, infoMember *zip.File
	for _, file := range reader.File {
		switch {
		case pkgMember == nil && isCondaMember(file.Name, "pkg-"):
			pkgMember = file
		case infoMember == nil && isCondaMember(file.Name, "info-"):
			infoMember = file
		}
	}
	if pkgMember == nil {
		return &InvalidCondaArchiveError{
			File:   filepath.Base(archivePath),
			Reason: "no pkg-*.tar.zst member found",
		}
	}

	// Metadata first: a malformed info member should fail before anything
	// lands on disk.
	var patches []PatchEntry
	if infoMember != nil {
		patches, err = parseCondaPatches(infoMember)
		if err != nil {
			return &InvalidCondaArchiveError{
				File:   filepath.Base(archivePath),
				Reason: fmt.Sprintf("broken info member '%s': %s", infoMember.Name, err),
			}
		}
	}

	if err := extractZstdTar(pkgMember, destDir); err != nil {
		return err
	}
	if len(patches) > 0 {
		if err := Poke(destDir, pokePrefix, patches); err != nil {
			return err
		}
	}

	// The nested container offers no useful per-entry granularity, so
	// conda reports a single completion tick.
	if progress != nil {
		progress(name, 1, 1)
	}
	return nil
}

func isCondaMember(memberName, prefix string) bool {
	return strings.HasPrefix(memberName, prefix) && strings.HasSuffix(memberName, ".tar.zst")
}

// extractZstdTar streams a zip member through zstd decompression into the
// shared validating tar extraction.
func extractZstdTar(member *zip.File, destDir string) error {
	content, err := member.Open()
	if err != nil {
		return fmt.Errorf("error opening conda member '%s': %w", member.Name, err)
	}
	defer content.Close()

	decoder, err := zstd.NewReader(content)
	if err != nil {
		return fmt.Errorf("error reading zstd stream of '%s': %w", member.Name, err)
	}
	defer decoder.Close()

	return extractTarStream(decoder, destDir, "", nil)
}

type condaPathEntry struct {
	Path              string  `json:"_path"`
	PrefixPlaceholder *string `json:"prefix_placeholder"`
	FileMode          *string `json:"file_mode"`
}

type condaPathsFile struct {
	Paths []condaPathEntry `json:"paths"`
}

// parseCondaPatches reads paths.json out of the info-*.tar.zst member and
// collects the entries that declare both a prefix placeholder and a file
// mode. An info member without paths.json yields no patches, which is
// fine.
func parseCondaPatches(member *zip.File) ([]PatchEntry, error) {
	content, err := member.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening member: %w", err)
	}
	defer content.Close()

	decoder, err := zstd.NewReader(content)
	if err != nil {
		return nil, fmt.Errorf("error reading zstd stream: %w", err)
	}
	defer decoder.Close()

	tarReader := tar.NewReader(decoder)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("error reading tar header: %w", err)
		}
		if header.Typeflag != tar.TypeReg || filepath.Base(header.Name) != "paths.json" {
			continue
		}

		data, err := io.ReadAll(tarReader)
		if err != nil {
			return nil, fmt.Errorf("error reading paths.json: %w", err)
		}
		var pathsFile condaPathsFile
		if err := json.Unmarshal(data, &pathsFile); err != nil {
			return nil, fmt.Errorf("error parsing paths.json: %w", err)
		}

		var patches []PatchEntry
		for _, entry := range pathsFile.Paths {
			if entry.PrefixPlaceholder == nil || entry.FileMode == nil {
				continue
			}
			patches = append(patches, PatchEntry{
				Path:              entry.Path,
				PrefixPlaceholder: *entry.PrefixPlaceholder,
				FileMode:          *entry.FileMode,
			})
		}
		return patches, nil
	}
}
