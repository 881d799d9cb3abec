// Package thumbs stores node thumbnails in a content-addressed library
// directory: identical files deduplicate to one stored copy, and nodes
// reference it by a stable relative name.
package thumbs

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/modshelf/modshelf/taxonomy"
)

// refHashLen is how much of the content hash goes into the stored name.
const refHashLen = 16

// Library is a directory of deduplicated thumbnail files.
type Library struct {
	dir string
}

// Entry describes one stored thumbnail, for listings.
type Entry struct {
	Ref  string
	Size int64
}

// NewLibrary opens (or creates) the library directory.
func NewLibrary(dir string) (*Library, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail directory: %w", err)
	}
	return &Library{dir: dir}, nil
}

// Add copies the file at srcPath into the library and returns its stable
// relative reference. The reference is derived from the content hash, so
// adding the same file twice returns the same reference without a second
// copy.
func (l *Library) Add(srcPath string) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = src.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, src); err != nil {
		return "", fmt.Errorf("failed to hash source file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(srcPath))
	ref := hex.EncodeToString(h.Sum(nil))[:refHashLen] + ext

	dst := filepath.Join(l.dir, ref)
	if _, err := os.Stat(dst); err == nil {
		return ref, nil // already stored, content-addressed dedupe
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind source file: %w", err)
	}
	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create thumbnail file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to copy thumbnail: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to close thumbnail file: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to install thumbnail: %w", err)
	}
	return ref, nil
}

// Path returns the absolute path of a stored reference.
func (l *Library) Path(ref string) string {
	return filepath.Join(l.dir, ref)
}

// Release removes the stored file for ref. The caller is responsible for
// only releasing references no surviving node shares. A file held open by
// another process maps to taxonomy.ErrResourceLocked and a permission
// failure to taxonomy.ErrPermissionDenied, so delete cascades can halt
// with an actionable message.
func (l *Library) Release(ref string) error {
	err := os.Remove(l.Path(ref))
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.ETXTBSY) {
		return fmt.Errorf("thumbnail %q: %w (close programs using this file)", ref, taxonomy.ErrResourceLocked)
	}
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("thumbnail %q: %w", ref, taxonomy.ErrPermissionDenied)
	}
	return fmt.Errorf("failed to remove thumbnail %q: %w", ref, err)
}

// List returns the stored thumbnails sorted by directory order.
func (l *Library) List() ([]Entry, error) {
	dirents, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read thumbnail directory: %w", err)
	}
	var entries []Entry
	for _, de := range dirents {
		if de.IsDir() || strings.HasSuffix(de.Name(), ".tmp") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Ref: de.Name(), Size: info.Size()})
	}
	return entries, nil
}
