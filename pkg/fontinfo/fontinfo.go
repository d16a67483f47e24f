// Package fontinfo reads naming metadata from TrueType and OpenType files.
package fontinfo

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/font/sfnt"
)

var ErrUnsupported = errors.New("only ttf and otf files can be inspected")

type Info struct {
	Family    string `json:"family"`
	Subfamily string `json:"subfamily"`
	FullName  string `json:"full_name,omitempty"`
	Weight    string `json:"weight"`
	Style     string `json:"style"`
	Glyphs    int    `json:"glyphs"`
}

// weight keywords in the order they are matched; longer names first so that
// "Extra Bold" does not match "Bold".
var weightNames = []struct {
	key    string
	weight string
}{
	{"extralight", "200"}, {"ultralight", "200"},
	{"extrabold", "800"}, {"ultrabold", "800"},
	{"semibold", "600"}, {"demibold", "600"},
	{"hairline", "100"}, {"thin", "100"},
	{"light", "300"},
	{"regular", "400"}, {"normal", "400"}, {"book", "400"},
	{"medium", "500"},
	{"bold", "700"},
	{"black", "900"}, {"heavy", "900"},
}

// Inspect parses a complete ttf/otf file.
func Inspect(data []byte, ext string) (*Info, error) {
	if ext != "ttf" && ext != "otf" {
		return nil, ErrUnsupported
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse font")
	}

	var buf sfnt.Buffer
	info := &Info{Glyphs: f.NumGlyphs()}
	// typographic names (16/17) win over the legacy family names (1/2)
	info.Family = name(f, &buf, sfnt.NameIDTypographicFamily, sfnt.NameIDFamily)
	info.Subfamily = name(f, &buf, sfnt.NameIDTypographicSubfamily, sfnt.NameIDSubfamily)
	info.FullName = name(f, &buf, sfnt.NameIDFull)
	if info.Family == "" {
		return nil, errors.New("font has no family name")
	}
	info.Weight, info.Style = Classify(info.Subfamily)
	return info, nil
}

func name(f *sfnt.Font, buf *sfnt.Buffer, ids ...sfnt.NameID) string {
	for _, id := range ids {
		s, err := f.Name(buf, id)
		if err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// Classify derives a CSS weight and style from a subfamily such as
// "Bold Italic" or "ExtraLight".
func Classify(subfamily string) (weight, style string) {
	s := strings.ToLower(subfamily)
	style = "normal"
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		style = "italic"
	}
	compact := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
	for _, w := range weightNames {
		if strings.Contains(compact, w.key) {
			return w.weight, style
		}
	}
	return "400", style
}
