package scrap_test

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

// fileEntry is one file inside a generated test archive. Entry names use
// forward slashes like real archives do.
type fileEntry struct {
	name    string
	content string
	mode    os.FileMode
	// linkTarget turns the entry into a symlink (tar archives only).
	linkTarget string
	// hardlinkTarget turns the entry into a hardlink to an earlier entry,
	// named relative to the archive root (tar archives only).
	hardlinkTarget string
}

func regular(name, content string) fileEntry {
	return fileEntry{name: name, content: content, mode: 0o644}
}

func buildZip(t *testing.T, path string, entries []fileEntry) {
	t.Helper()

	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	for _, entry := range entries {
		header := &zip.FileHeader{Name: entry.name, Method: zip.Deflate}
		header.SetMode(entry.mode)
		member, err := writer.CreateHeader(header)
		require.NoError(t, err)
		_, err = member.Write([]byte(entry.content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	require.NoError(t, os.WriteFile(path, buffer.Bytes(), 0o644))
}

func writeTarEntries(t *testing.T, writer *tar.Writer, entries []fileEntry) {
	t.Helper()

	for _, entry := range entries {
		if entry.linkTarget != "" {
			require.NoError(t, writer.WriteHeader(&tar.Header{
				Typeflag: tar.TypeSymlink,
				Name:     entry.name,
				Linkname: entry.linkTarget,
				Mode:     0o777,
			}))
			continue
		}
		if entry.hardlinkTarget != "" {
			require.NoError(t, writer.WriteHeader(&tar.Header{
				Typeflag: tar.TypeLink,
				Name:     entry.name,
				Linkname: entry.hardlinkTarget,
				Mode:     0o644,
			}))
			continue
		}
		require.NoError(t, writer.WriteHeader(&tar.Header{
			Typeflag: tar.TypeReg,
			Name:     entry.name,
			Mode:     int64(entry.mode),
			Size:     int64(len(entry.content)),
		}))
		_, err := writer.Write([]byte(entry.content))
		require.NoError(t, err)
	}
}

func tarBytes(t *testing.T, entries []fileEntry) []byte {
	t.Helper()

	var buffer bytes.Buffer
	writer := tar.NewWriter(&buffer)
	writeTarEntries(t, writer, entries)
	require.NoError(t, writer.Close())
	return buffer.Bytes()
}

func buildTarGz(t *testing.T, path string, entries []fileEntry) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	_, err = gzipWriter.Write(tarBytes(t, entries))
	require.NoError(t, err)
	require.NoError(t, gzipWriter.Close())
}

func buildTarXz(t *testing.T, path string, entries []fileEntry) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	xzWriter, err := xz.NewWriter(file)
	require.NoError(t, err)
	_, err = xzWriter.Write(tarBytes(t, entries))
	require.NoError(t, err)
	require.NoError(t, xzWriter.Close())
}

func buildTarBz2(t *testing.T, path string, entries []fileEntry) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	bzip2Writer, err := bzip2.NewWriter(file, &bzip2.WriterConfig{Level: bzip2.BestSpeed})
	require.NoError(t, err)
	_, err = bzip2Writer.Write(tarBytes(t, entries))
	require.NoError(t, err)
	require.NoError(t, bzip2Writer.Close())
}

// buildConda writes a .conda container: a zip holding zstd-compressed tar
// members. infoEntries may be nil to produce a payload-only package.
func buildConda(t *testing.T, path string, pkgEntries, infoEntries []fileEntry) {
	t.Helper()

	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)

	addMember := func(memberName string, entries []fileEntry) {
		member, err := writer.Create(memberName)
		require.NoError(t, err)
		encoder, err := zstd.NewWriter(member)
		require.NoError(t, err)
		_, err = encoder.Write(tarBytes(t, entries))
		require.NoError(t, err)
		require.NoError(t, encoder.Close())
	}

	addMember("pkg-test-1.0.tar.zst", pkgEntries)
	if infoEntries != nil {
		addMember("info-test-1.0.tar.zst", infoEntries)
	}

	require.NoError(t, writer.Close())
	require.NoError(t, os.WriteFile(path, buffer.Bytes(), 0o644))
}

func sha256Of(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

func readFileString(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func fileURL(path string) string {
	return "file://" + filepath.ToSlash(path)
}
