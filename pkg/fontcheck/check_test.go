package fontcheck

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/chrmrtns/safefonts/pkg/fonterr"
)

func fakeFont(sig string, size int) []byte {
	b := make([]byte, size)
	copy(b, sig)
	return b
}

func TestCheckAcceptsFonts(t *testing.T) {
	c := New(DefaultMaxSize, DefaultExtensions)

	t.Run("woff2", func(t *testing.T) {
		res, err := c.CheckBytes(fakeFont("wOF2", 50*1024), "Roboto-Regular.woff2")
		require.NoError(t, err)
		assert.Equal(t, "woff2", res.Extension)
		assert.Equal(t, "font/woff2", res.MimeType)
		assert.Equal(t, int64(50*1024), res.Size)
	})

	t.Run("woff", func(t *testing.T) {
		res, err := c.CheckBytes(fakeFont("wOFF", 1024), "a.WOFF")
		require.NoError(t, err)
		assert.Equal(t, "woff", res.Extension)
	})

	t.Run("otf", func(t *testing.T) {
		res, err := c.CheckBytes(fakeFont("OTTO", 1024), "a.otf")
		require.NoError(t, err)
		assert.Equal(t, "otf", res.Extension)
	})

	t.Run("real ttf", func(t *testing.T) {
		res, err := c.CheckBytes(goregular.TTF, "Go-Regular.ttf")
		require.NoError(t, err)
		assert.Equal(t, "ttf", res.Extension)
		assert.True(t, MimeAllowed("ttf", res.MimeType), res.MimeType)
	})
}

func TestCheckFailures(t *testing.T) {
	c := New(DefaultMaxSize, DefaultExtensions)

	t.Run("empty", func(t *testing.T) {
		_, err := c.CheckBytes(nil, "a.woff2")
		assert.Equal(t, fonterr.EmptyFile, fonterr.KindOf(err))
	})

	t.Run("extension", func(t *testing.T) {
		_, err := c.CheckBytes(fakeFont("wOF2", 64), "shell.php")
		assert.Equal(t, fonterr.DisallowedExtension, fonterr.KindOf(err))
		assert.Contains(t, err.Error(), `"php"`)
		assert.Contains(t, err.Error(), "woff2, woff, ttf, otf")
	})

	t.Run("no extension", func(t *testing.T) {
		_, err := c.CheckBytes(fakeFont("wOF2", 64), "woff2")
		assert.Equal(t, fonterr.DisallowedExtension, fonterr.KindOf(err))
	})

	t.Run("mime", func(t *testing.T) {
		png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
		_, err := c.CheckBytes(png, "image.woff2")
		assert.Equal(t, fonterr.MimeMismatch, fonterr.KindOf(err))
	})

	t.Run("ttf with zero signature", func(t *testing.T) {
		_, err := c.CheckBytes(make([]byte, 4096), "evil.ttf")
		assert.Equal(t, fonterr.SignatureMismatch, fonterr.KindOf(err))
	})

	t.Run("woff2 bytes claimed as otf", func(t *testing.T) {
		cc := &Checker{Detect: func(io.Reader) (string, error) { return "application/octet-stream", nil }}
		_, err := cc.CheckBytes(fakeFont("wOF2", 64), "a.otf")
		assert.Equal(t, fonterr.SignatureMismatch, fonterr.KindOf(err))
	})

	t.Run("allowed extension without mime table", func(t *testing.T) {
		cc := New(DefaultMaxSize, []string{"eot"})
		_, err := cc.CheckBytes(fakeFont("LP", 64), "a.eot")
		assert.Equal(t, fonterr.MimeMismatch, fonterr.KindOf(err))
	})
}

func TestTooLargeSkipsSniffing(t *testing.T) {
	sniffed := false
	c := &Checker{
		MaxSize:           1 << 20,
		AllowedExtensions: DefaultExtensions,
		Detect: func(r io.Reader) (string, error) {
			sniffed = true
			return SniffMIME(r)
		},
	}

	_, err := c.CheckBytes(fakeFont("wOF2", 2<<20), "big.woff2")
	assert.Equal(t, fonterr.FileTooLarge, fonterr.KindOf(err))
	assert.Contains(t, err.Error(), "2.0 MB")
	assert.False(t, sniffed, "MIME detection must not run for oversized files")

	_, err = c.CheckBytes(fakeFont("wOF2", 1<<20), "limit.woff2")
	assert.NoError(t, err)
	assert.True(t, sniffed)
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "upload.tmp")
	require.NoError(t, os.WriteFile(path, fakeFont("wOFF", 512), 0o600))

	res, err := New(0, nil).CheckFile(path, "Lato.woff")
	require.NoError(t, err)
	assert.Equal(t, "woff", res.Extension)

	_, err = New(0, nil).CheckFile(filepath.Join(dir, "missing"), "Lato.woff")
	assert.Equal(t, fonterr.EmptyFile, fonterr.KindOf(err))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "woff2", Extension("Roboto.WOFF2"))
	assert.Equal(t, "ttf", Extension(`C:\fonts\x.ttf`))
	assert.Equal(t, "otf", Extension("dir/archive.tar.otf"))
	assert.Equal(t, "", Extension("README"))
}

func TestSignatureSpoofProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	// MIME layer passes for every candidate so only the signature decides.
	c := &Checker{
		AllowedExtensions: DefaultExtensions,
		Detect:            func(io.Reader) (string, error) { return "application/octet-stream", nil },
	}

	properties.Property("wrong magic bytes are always rejected", prop.ForAll(
		func(ext string, body []byte) bool {
			if SignatureMatches(ext, body) {
				return true
			}
			_, err := c.Check(bytes.NewReader(body), int64(len(body)), "font."+ext)
			return fonterr.KindOf(err) == fonterr.SignatureMismatch
		},
		gen.OneConstOf("woff2", "woff", "ttf", "otf"),
		gen.SliceOfN(64, gen.UInt8()),
	))

	properties.Property("correct magic bytes pass", prop.ForAll(
		func(ext string, body []byte) bool {
			sig := signatures[ext][0]
			buf := append(append([]byte{}, sig...), body...)
			_, err := c.Check(bytes.NewReader(buf), int64(len(buf)), "font."+ext)
			return err == nil
		},
		gen.OneConstOf("woff2", "woff", "ttf", "otf"),
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}
