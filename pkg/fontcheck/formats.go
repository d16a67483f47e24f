package fontcheck

import (
	"bytes"
	"mime"
	"strings"
)

// Font MIME reporting differs between platforms, so each extension accepts
// several historical names. application/octet-stream is accepted for every
// format: the signature check is what actually rejects disguised files.
var mimeTypes = map[string][]string{
	"woff2": {"font/woff2", "application/font-woff2", "application/x-font-woff2", "application/octet-stream"},
	"woff":  {"font/woff", "application/font-woff", "application/x-font-woff", "font/x-woff", "application/octet-stream"},
	"ttf":   {"font/ttf", "application/x-font-ttf", "font/sfnt", "application/x-font-truetype", "application/octet-stream"},
	"otf":   {"font/otf", "application/x-font-otf", "font/opentype", "application/x-font-opentype", "application/octet-stream"},
}

var signatures = map[string][][]byte{
	"woff2": {[]byte("wOF2")},
	"woff":  {[]byte("wOFF")},
	"otf":   {[]byte("OTTO")},
	"ttf":   {{0x00, 0x01, 0x00, 0x00}, []byte("true"), []byte("typ1")},
}

// KnownExtension reports whether ext has both a MIME list and a signature.
func KnownExtension(ext string) bool {
	_, ok := signatures[strings.ToLower(ext)]
	return ok
}

// MimeTypes returns the accepted MIME types for ext.
func MimeTypes(ext string) []string {
	return append([]string(nil), mimeTypes[strings.ToLower(ext)]...)
}

func MimeAllowed(ext, detected string) bool {
	base, _, err := mime.ParseMediaType(detected)
	if err != nil {
		base = strings.TrimSpace(strings.ToLower(detected))
	}
	for _, m := range mimeTypes[ext] {
		if m == base {
			return true
		}
	}
	return false
}

func SignatureMatches(ext string, head []byte) bool {
	if len(head) < 4 {
		return false
	}
	for _, sig := range signatures[ext] {
		if bytes.Equal(head[:4], sig) {
			return true
		}
	}
	return false
}
