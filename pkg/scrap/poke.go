package scrap

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// PatchEntry names one extracted file whose build-time prefix placeholder
// must be rewritten to the real install path. Entries come from the
// paths.json metadata of conda packages.
type PatchEntry struct {
	Path              string
	PrefixPlaceholder string
	FileMode          string // "text" or "binary"
}

// Poke rewrites the build-time prefix placeholder to newPrefix in every
// patched file below dir. Missing targets and unknown file modes are
// logged and skipped; conda packaging is messy and an absent file must not
// fail an otherwise-successful install. Binary patches preserve the file
// size exactly.
func Poke(dir, newPrefix string, patches []PatchEntry) error {
	for _, entry := range patches {
		target := filepath.Join(dir, entry.Path)
		info, err := os.Stat(target)
		if err != nil || info.IsDir() {
			slog.Warn("skipping patch for missing file", "path", entry.Path)
			continue
		}

		switch entry.FileMode {
		case "text":
			err = pokeFile(target, info.Mode(), entry.PrefixPlaceholder, newPrefix, replaceText)
		case "binary":
			err = pokeFile(target, info.Mode(), entry.PrefixPlaceholder, newPrefix, replaceBinary)
		default:
			slog.Warn("skipping patch with unknown file mode",
				"path", entry.Path, "file_mode", entry.FileMode)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type replaceFunc func(data []byte, target, placeholder, newPrefix string) ([]byte, error)

func pokeFile(target string, mode os.FileMode, placeholder, newPrefix string, replace replaceFunc) error {
	data, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("error reading patch target: %w", err)
	}
	updated, err := replace(data, target, placeholder, newPrefix)
	if err != nil {
		return err
	}
	if bytes.Equal(updated, data) {
		return nil
	}
	if err := os.WriteFile(target, updated, mode.Perm()); err != nil {
		return fmt.Errorf("error writing patched file: %w", err)
	}
	return nil
}

// replaceText substitutes every occurrence of the placeholder. When the
// placeholder contains backslashes, a second pass replaces the
// forward-slash-normalized forms too; scripts on Windows mix separators.
func replaceText(data []byte, _, placeholder, newPrefix string) ([]byte, error) {
	updated := bytes.ReplaceAll(data, []byte(placeholder), []byte(newPrefix))
	if strings.Contains(placeholder, `\`) {
		updated = bytes.ReplaceAll(updated,
			[]byte(strings.ReplaceAll(placeholder, `\`, "/")),
			[]byte(strings.ReplaceAll(newPrefix, `\`, "/")))
	}
	return updated, nil
}

// replaceBinary substitutes the placeholder while preserving the file
// length: the new prefix is padded with trailing NUL bytes to exactly the
// placeholder's byte length. A prefix longer than the placeholder cannot
// be patched safely; binaries may carry hard-coded offsets.
func replaceBinary(data []byte, target, placeholder, newPrefix string) ([]byte, error) {
	padded, err := nulPadded(target, placeholder, newPrefix)
	if err != nil {
		return nil, err
	}
	updated := bytes.ReplaceAll(data, []byte(placeholder), padded)

	if strings.Contains(placeholder, `\`) {
		forwardPlaceholder := strings.ReplaceAll(placeholder, `\`, "/")
		forwardPadded, err := nulPadded(target, forwardPlaceholder, strings.ReplaceAll(newPrefix, `\`, "/"))
		if err != nil {
			return nil, err
		}
		updated = bytes.ReplaceAll(updated, []byte(forwardPlaceholder), forwardPadded)
	}
	return updated, nil
}

func nulPadded(target, placeholder, newPrefix string) ([]byte, error) {
	placeholderBytes := []byte(placeholder)
	prefixBytes := []byte(newPrefix)
	if len(prefixBytes) > len(placeholderBytes) {
		return nil, &PrefixTooLongError{
			File:           filepath.Base(target),
			PrefixLen:      len(prefixBytes),
			PlaceholderLen: len(placeholderBytes),
		}
	}
	return append(prefixBytes, make([]byte, len(placeholderBytes)-len(prefixBytes))...), nil
}
