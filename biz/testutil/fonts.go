package testutil

import (
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goregular"
)

var signatures = map[string]string{
	"woff2": "wOF2",
	"woff":  "wOFF",
	"otf":   "OTTO",
	"ttf":   "\x00\x01\x00\x00",
}

// FontBytes 返回带正确文件头的 n 字节内容, ttf 直接使用 Go Regular 字体
func FontBytes(ext string, n int) []byte {
	if ext == "ttf" && n <= 0 {
		return append([]byte(nil), goregular.TTF...)
	}
	if n < 4 {
		n = 64
	}
	b := make([]byte, n)
	copy(b, signatures[ext])
	return b
}

// GoRegular Go Regular (400 normal)
func GoRegular() []byte { return append([]byte(nil), goregular.TTF...) }

// GoBoldItalic Go Bold Italic (700 italic)
func GoBoldItalic() []byte { return append([]byte(nil), gobolditalic.TTF...) }
