package assets

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chrmrtns/safefonts/pkg/fonterr"
	"github.com/chrmrtns/safefonts/pkg/slug"
)

const maxNameAttempts = 1000

// LocalFS stores fonts on the local filesystem under RootDir.
type LocalFS struct {
	RootDir string
	// Placeholder is written into every partition to prevent directory
	// listing; empty disables it.
	Placeholder string

	now func() time.Time
	log *logrus.Entry
}

var _ Store = (*LocalFS)(nil)

func NewLocalFS(rootDir, placeholder string) (*LocalFS, error) {
	if strings.TrimSpace(rootDir) == "" {
		return nil, errors.New("rootDir is required")
	}
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	s := &LocalFS{
		RootDir:     abs,
		Placeholder: placeholder,
		now:         time.Now,
		log:         logrus.WithField("module", "assets"),
	}
	if err := s.ensureDir(abs); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LocalFS) Write(ctx context.Context, src io.Reader, family, filename string) (*Object, error) {
	familySlug := slug.Make(family)
	dir := filepath.Join(s.RootDir, familySlug)
	if err := s.ensureDir(dir); err != nil {
		return nil, err
	}

	// 1) stream to a temp file in the partition and compute SHA-256
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if errors.Is(err, fs.ErrNotExist) {
		// partition removed by a concurrent delete; recreate once
		if err = s.ensureDir(dir); err == nil {
			tmp, err = os.CreateTemp(dir, ".upload-*")
		}
	}
	if err != nil {
		return nil, notWritable(err, dir)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	defer tmp.Close()

	hasher := sha256.New()
	n, err := io.CopyBuffer(io.MultiWriter(tmp, hasher), src, make([]byte, 32*1024))
	if err != nil {
		return nil, fonterr.Wrap(err, fonterr.CopyFailed, "Failed to copy the font file into %s", dir)
	}
	if err := tmp.Sync(); err != nil {
		return nil, fonterr.Wrap(err, fonterr.CopyFailed, "Failed to flush the font file")
	}
	if err := tmp.Close(); err != nil {
		return nil, fonterr.Wrap(err, fonterr.CopyFailed, "Failed to close the font file")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return nil, fonterr.Wrap(err, fonterr.CopyFailed, "Failed to set permissions on the font file")
	}

	// 2) reserve a unique final name, then atomically move the content over it
	base, ext := splitFilename(filename)
	name, final, err := s.reserve(dir, base, ext)
	if err != nil {
		return nil, err
	}
	if err := os.Rename(tmpName, final); err != nil {
		_ = os.Remove(final)
		return nil, fonterr.Wrap(err, fonterr.CopyFailed, "Failed to move the font file into place")
	}

	fi, err := os.Stat(final)
	if err != nil || fi.Size() != n {
		_ = os.Remove(final)
		return nil, fonterr.New(fonterr.FileNotCopied, "The font file was not copied to %s", final)
	}

	return &Object{
		Path: familySlug + "/" + name,
		Size: n,
		Hash: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// reserve creates an empty file with a name nobody else holds.
func (s *LocalFS) reserve(dir, base, ext string) (name, full string, err error) {
	ts := s.now().Unix()
	for i := 0; i < maxNameAttempts; i++ {
		name = uniqueName(base, ext, ts, i)
		full = filepath.Join(dir, name)
		f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", notWritable(err, dir)
		}
		f.Close()
		return name, full, nil
	}
	return "", "", fonterr.New(fonterr.CopyFailed, "Could not find a free file name for %s.%s", base, ext)
}

func (s *LocalFS) Delete(ctx context.Context, rel string) error {
	p, err := s.abs(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, "delete %s", rel)
	}
	s.cleanupDir(filepath.Dir(p))
	return nil
}

// cleanupDir removes an emptied partition. Failures are only logged: the
// font file itself is already gone.
func (s *LocalFS) cleanupDir(dir string) {
	if filepath.Clean(dir) == s.RootDir {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.log.WithError(err).WithField("dir", dir).Debug("cleanup: read dir failed")
		return
	}
	placeholders := make([]string, 0, 2)
	for _, e := range entries {
		if !s.isPlaceholder(e.Name()) {
			return
		}
		placeholders = append(placeholders, e.Name())
	}
	for _, name := range placeholders {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			s.log.WithError(err).WithField("dir", dir).Debug("cleanup: remove placeholder failed")
		}
	}
	if err := os.Remove(dir); err != nil {
		s.log.WithError(err).WithField("dir", dir).Debug("cleanup: remove dir failed")
	}
}

func (s *LocalFS) isPlaceholder(name string) bool {
	return placeholderNames[name] || (s.Placeholder != "" && name == s.Placeholder)
}

func (s *LocalFS) Hash(ctx context.Context, rel string) (string, error) {
	f, err := s.Open(ctx, rel)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", errors.Wrapf(err, "hash %s", rel)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (s *LocalFS) Open(ctx context.Context, rel string) (io.ReadCloser, error) {
	p, err := s.abs(rel)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", rel)
	}
	return f, nil
}

func (s *LocalFS) Exists(ctx context.Context, rel string) (bool, error) {
	p, err := s.abs(rel)
	if err != nil {
		return false, err
	}
	fi, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "stat %s", rel)
	}
	return fi.Mode().IsRegular(), nil
}

func (s *LocalFS) Move(ctx context.Context, from, to string) error {
	src, err := s.abs(from)
	if err != nil {
		return err
	}
	dst, err := s.abs(to)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(dst); err == nil {
		return errors.Wrapf(fs.ErrExist, "move %s -> %s", from, to)
	}
	if err := s.ensureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return errors.Wrapf(err, "move %s -> %s", from, to)
	}
	s.cleanupDir(filepath.Dir(src))
	return nil
}

func (s *LocalFS) Put(ctx context.Context, rel string, src io.Reader) error {
	dst, err := s.abs(rel)
	if err != nil {
		return err
	}
	dir := filepath.Dir(dst)
	if err := s.ensureDir(dir); err != nil {
		return err
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errors.Wrapf(fs.ErrExist, "put %s", rel)
		}
		return notWritable(err, dir)
	}
	f.Close()
	if err := s.writeAtomic(dir, dst, src); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

func (s *LocalFS) PutArtifact(ctx context.Context, name string, data []byte) error {
	name, err := artifactName(name)
	if err != nil {
		return err
	}
	return s.writeAtomic(s.RootDir, filepath.Join(s.RootDir, name), bytes.NewReader(data))
}

func (s *LocalFS) ReadArtifact(ctx context.Context, name string) ([]byte, time.Time, error) {
	name, err := artifactName(name)
	if err != nil {
		return nil, time.Time{}, err
	}
	p := filepath.Join(s.RootDir, name)
	fi, err := os.Stat(p)
	if err != nil {
		return nil, time.Time{}, errors.Wrapf(err, "read artifact %s", name)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, time.Time{}, errors.Wrapf(err, "read artifact %s", name)
	}
	return data, fi.ModTime(), nil
}

func (s *LocalFS) StatArtifact(ctx context.Context, name string) (time.Time, bool, error) {
	name, err := artifactName(name)
	if err != nil {
		return time.Time{}, false, err
	}
	fi, err := os.Stat(filepath.Join(s.RootDir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errors.Wrapf(err, "stat artifact %s", name)
	}
	return fi.ModTime(), true, nil
}

func (s *LocalFS) Purge(ctx context.Context) error {
	return errors.Wrapf(os.RemoveAll(s.RootDir), "purge %s", s.RootDir)
}

// writeAtomic writes src to a temp file in dir and renames it over dst.
func (s *LocalFS) writeAtomic(dir, dst string, src io.Reader) error {
	tmp, err := os.CreateTemp(dir, ".write-*")
	if err != nil {
		return notWritable(err, dir)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		return fonterr.Wrap(err, fonterr.CopyFailed, "Failed to write %s", filepath.Base(dst))
	}
	if err := tmp.Close(); err != nil {
		return fonterr.Wrap(err, fonterr.CopyFailed, "Failed to write %s", filepath.Base(dst))
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fonterr.Wrap(err, fonterr.CopyFailed, "Failed to set permissions on %s", filepath.Base(dst))
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fonterr.Wrap(err, fonterr.CopyFailed, "Failed to move %s into place", filepath.Base(dst))
	}
	return nil
}

func (s *LocalFS) ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return notWritable(err, dir)
	}
	if s.Placeholder == "" {
		return nil
	}
	p := filepath.Join(dir, s.Placeholder)
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			return notWritable(err, dir)
		}
	}
	return nil
}

func (s *LocalFS) abs(rel string) (string, error) {
	clean, err := CleanRel(rel)
	if err != nil {
		return "", err
	}
	p := filepath.Join(s.RootDir, filepath.FromSlash(clean))
	r, err := filepath.Rel(s.RootDir, p)
	if err != nil || r == "." || strings.HasPrefix(r, "..") {
		return "", fonterr.New(fonterr.PathOutsideRoot, "asset path %q escapes the font directory", rel)
	}
	return p, nil
}

func notWritable(err error, dir string) error {
	return fonterr.Wrap(err, fonterr.DirectoryNotWritable,
		"Font directory %s is not writable. Please check file permissions (e.g. chmod 755 %s)", dir, dir)
}
