// Package fontcheck decides whether an uploaded byte stream is an acceptable
// font file of the type its filename claims.
//
// Checks run in a fixed order and stop at the first failure:
// size, extension, sniffed MIME type, magic bytes.
package fontcheck

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"

	"github.com/chrmrtns/safefonts/pkg/fonterr"
)

const DefaultMaxSize int64 = 2 << 20 // 2 MiB

var DefaultExtensions = []string{"woff2", "woff", "ttf", "otf"}

// Detector sniffs the MIME type of the leading bytes of a file.
type Detector func(r io.Reader) (string, error)

// SniffMIME is the default Detector, backed by mimetype.
func SniffMIME(r io.Reader) (string, error) {
	m, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}

type Checker struct {
	MaxSize           int64
	AllowedExtensions []string
	Detect            Detector
}

type Result struct {
	Extension string `json:"extension"`
	MimeType  string `json:"mime_type"`
	Size      int64  `json:"size"`
}

func New(maxSize int64, allowed []string) *Checker {
	return &Checker{MaxSize: maxSize, AllowedExtensions: allowed}
}

// Check validates size bytes readable from src under the declared filename.
func (c *Checker) Check(src io.ReaderAt, size int64, filename string) (*Result, error) {
	if src == nil || size <= 0 {
		return nil, fonterr.New(fonterr.EmptyFile, "No file uploaded or the file is empty")
	}

	maxSize := c.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if size > maxSize {
		return nil, fonterr.New(fonterr.FileTooLarge,
			"File size %s exceeds the maximum allowed size of %s", humanSize(size), humanSize(maxSize))
	}

	ext := Extension(filename)
	allowed := c.AllowedExtensions
	if len(allowed) == 0 {
		allowed = DefaultExtensions
	}
	if !contains(allowed, ext) {
		return nil, fonterr.New(fonterr.DisallowedExtension,
			"File extension %q is not allowed. Allowed types: %s", ext, strings.Join(allowed, ", "))
	}

	detect := c.Detect
	if detect == nil {
		detect = SniffMIME
	}
	mime, err := detect(io.NewSectionReader(src, 0, size))
	if err != nil {
		return nil, fonterr.Wrap(err, fonterr.MimeMismatch, "Unable to detect the file type")
	}
	if !MimeAllowed(ext, mime) {
		return nil, fonterr.New(fonterr.MimeMismatch,
			"File type %q does not match a .%s font", mime, ext)
	}

	head := make([]byte, 4)
	n, err := src.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fonterr.Wrap(err, fonterr.SignatureMismatch, "Unable to read the file signature")
	}
	if !SignatureMatches(ext, head[:n]) {
		return nil, fonterr.New(fonterr.SignatureMismatch,
			"File content does not match a .%s font (invalid signature)", ext)
	}

	return &Result{Extension: ext, MimeType: mime, Size: size}, nil
}

// CheckFile opens path and checks it under the declared filename.
func (c *Checker) CheckFile(path, filename string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fonterr.Wrap(err, fonterr.EmptyFile, "Unable to read the uploaded file")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fonterr.Wrap(err, fonterr.EmptyFile, "Unable to read the uploaded file")
	}
	return c.Check(f, fi.Size(), filename)
}

func (c *Checker) CheckBytes(b []byte, filename string) (*Result, error) {
	return c.Check(bytes.NewReader(b), int64(len(b)), filename)
}

// Extension is the lowercase extension of filename without the dot.
func Extension(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filepath.Base(filename))), ".")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
