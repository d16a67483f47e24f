// Package assets owns the stored font files: the family partitioned layout
// {root}/{familySlug}/{name}-{unix}.{ext} and the generated artifacts that
// live directly under the root (fonts.css).
package assets

import (
	"context"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/chrmrtns/safefonts/pkg/fonterr"
	"github.com/chrmrtns/safefonts/pkg/slug"
)

// Object describes a font file that was fully persisted.
type Object struct {
	Path string `json:"path"` // relative to the store root, slash separated
	Size int64  `json:"size"`
	Hash string `json:"hash"` // sha256 hex
}

type Store interface {
	// Write persists src under the family partition with a unique name.
	Write(ctx context.Context, src io.Reader, family, filename string) (*Object, error)
	// Delete removes the file and an emptied family partition. Missing files are not an error.
	Delete(ctx context.Context, rel string) error
	Hash(ctx context.Context, rel string) (string, error)
	Open(ctx context.Context, rel string) (io.ReadCloser, error)
	Exists(ctx context.Context, rel string) (bool, error)
	// Move relocates a file; it fails with fs.ErrExist instead of overwriting.
	Move(ctx context.Context, from, to string) error
	// Put writes src at exactly rel; it fails with fs.ErrExist instead of overwriting.
	Put(ctx context.Context, rel string, src io.Reader) error

	PutArtifact(ctx context.Context, name string, data []byte) error
	// ReadArtifact returns an error matching fs.ErrNotExist when missing.
	ReadArtifact(ctx context.Context, name string) ([]byte, time.Time, error)
	StatArtifact(ctx context.Context, name string) (modTime time.Time, ok bool, err error)

	// Purge removes every stored file and the root itself.
	Purge(ctx context.Context) error
}

// placeholder files that may sit in a partition without keeping it alive
var placeholderNames = map[string]bool{
	"index.html": true,
	"index.php":  true,
	".htaccess":  true,
}

// CleanRel normalizes a slash separated relative path and rejects anything
// that could leave the root.
func CleanRel(rel string) (string, error) {
	rel = strings.ReplaceAll(strings.TrimSpace(rel), "\\", "/")
	if rel == "" || strings.ContainsRune(rel, 0) || strings.HasPrefix(rel, "/") {
		return "", fonterr.New(fonterr.PathOutsideRoot, "invalid asset path %q", rel)
	}
	clean := path.Clean(rel)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fonterr.New(fonterr.PathOutsideRoot, "asset path %q escapes the font directory", rel)
	}
	return clean, nil
}

// artifactName accepts only a plain file name directly under the root.
func artifactName(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return "", fonterr.New(fonterr.PathOutsideRoot, "invalid artifact name %q", name)
	}
	return name, nil
}

// splitFilename returns the sanitized base name and lower-cased extension of
// an uploaded filename.
func splitFilename(filename string) (base, ext string) {
	filename = path.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext = path.Ext(filename)
	base = strings.TrimSuffix(filename, ext)
	return slug.Filename(base), strings.ToLower(strings.TrimPrefix(ext, "."))
}

// uniqueName builds the n-th candidate name for a stored file.
func uniqueName(base, ext string, ts int64, n int) string {
	name := base + "-" + strconv.FormatInt(ts, 10)
	if n > 0 {
		name += "-" + strconv.Itoa(n)
	}
	if ext != "" {
		name += "." + ext
	}
	return name
}
