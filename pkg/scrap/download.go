package scrap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cavaliergopher/grab/v3"
)

const downloadChunkSize = 8192

// CachePath derives the deterministic cache location for a URL: a short
// hash of the full URL combined with its basename. Two URLs sharing a
// filename therefore never collide.
func CachePath(url, cacheDir string) string {
	trimmed := strings.TrimSuffix(strings.SplitN(url, "?", 2)[0], "/")
	digest := sha256.Sum256([]byte(url))
	return filepath.Join(cacheDir, hex.EncodeToString(digest[:])[:8]+"_"+path.Base(trimmed))
}

// VerifyChecksum computes the SHA-256 of the file and compares it against
// the expected lowercase hex digest.
func VerifyChecksum(filePath, expected string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("error opening '%s': %w", filePath, err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fmt.Errorf("error hashing '%s': %w", filePath, err)
	}

	actual := hex.EncodeToString(hash.Sum(nil))
	if actual != expected {
		return &ChecksumMismatchError{
			File:     filepath.Base(filePath),
			Expected: expected,
			Actual:   actual,
		}
	}
	return nil
}

// GetCachedOrDownload returns a verified local copy of the archive at url,
// downloading it into the cache when necessary. A cache entry with the
// wrong hash is deleted and re-fetched; a fresh download with the wrong
// hash is a hard error and is never handed to the extractor.
func GetCachedOrDownload(url, sha256Hex, cacheDir, name string, progress ProgressFunc) (string, error) {
	cached := CachePath(url, cacheDir)
	if _, err := os.Stat(cached); err == nil {
		if err := VerifyChecksum(cached, sha256Hex); err == nil {
			return cached, nil
		}
		slog.Warn("corrupt cache entry, re-downloading", "path", cached)
		if err := os.Remove(cached); err != nil {
			return "", fmt.Errorf("error removing corrupt cache entry: %w", err)
		}
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("error creating cache dir: %w", err)
	}
	if err := downloadFile(url, cached, name, progress); err != nil {
		return "", err
	}
	if err := VerifyChecksum(cached, sha256Hex); err != nil {
		// The bad file stays in the cache on purpose: the corruption check
		// above deletes and re-fetches it on the next attempt.
		return "", err
	}
	return cached, nil
}

func downloadFile(url, dest, name string, progress ProgressFunc) error {
	if strings.HasPrefix(url, "file://") {
		return copyLocalFile(strings.TrimPrefix(url, "file://"), dest, name, progress)
	}

	request, err := grab.NewRequest(dest, url)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	// The cache path is authoritative; never resume a partial file with a
	// possibly different origin.
	request.NoResume = true

	response := grab.NewClient().Do(request)
	total := int64(-1)
	if response.HTTPResponse != nil && response.HTTPResponse.ContentLength >= 0 {
		total = response.HTTPResponse.ContentLength
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if progress != nil {
				progress(name, response.BytesComplete(), total)
			}
		case <-response.Done:
			if err := response.Err(); err != nil {
				return &DownloadError{URL: url, Err: err}
			}
			if progress != nil {
				progress(name, response.BytesComplete(), total)
			}
			return nil
		}
	}
}

// copyLocalFile streams a file:// source into the cache in fixed-size
// chunks, reporting the same progress a network download would.
func copyLocalFile(sourcePath, dest, name string, progress ProgressFunc) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return &DownloadError{URL: "file://" + sourcePath, Err: err}
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return &DownloadError{URL: "file://" + sourcePath, Err: err}
	}

	target, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("error creating cache file: %w", err)
	}
	defer target.Close()

	var copied int64
	buffer := make([]byte, downloadChunkSize)
	for {
		read, readErr := source.Read(buffer)
		if read > 0 {
			if _, err := target.Write(buffer[:read]); err != nil {
				return fmt.Errorf("error writing cache file: %w", err)
			}
			copied += int64(read)
			if progress != nil {
				progress(name, copied, info.Size())
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return &DownloadError{URL: "file://" + sourcePath, Err: readErr}
		}
	}
}
