// Package fontcss derives the stylesheet, the block editor font descriptors
// and the preload hints from the registered font variants. Everything here is
// a pure function of its input: the same faces always render the same bytes.
package fontcss

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/chrmrtns/safefonts/pkg/slug"
)

const (
	StylesheetName = "fonts.css"
	EmptyCSS       = "/* SafeFonts - No fonts installed */\n"
)

// Face is one stored font file as the generator sees it.
type Face struct {
	ID     int64
	Family string
	Slug   string // stored family slug, derived from Family when empty
	Style  string
	Weight string
	Path   string // relative to the asset root
}

func (f Face) FamilySlug() string {
	if f.Slug != "" {
		return f.Slug
	}
	return slug.Make(f.Family)
}

// Extension is the lower-cased file extension of the stored file.
func (f Face) Extension() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(f.Path), "."))
}

// Group is one family with its faces in registry order.
type Group struct {
	Name  string
	Slug  string
	Faces []Face
}

// GroupFaces groups faces by family slug, keeping first-appearance order.
// Families whose names differ only in case or punctuation share one group
// and take the first name seen.
func GroupFaces(faces []Face) []Group {
	groups := make([]Group, 0)
	index := map[string]int{}
	for _, f := range faces {
		s := f.FamilySlug()
		i, ok := index[s]
		if !ok {
			i = len(groups)
			index[s] = i
			groups = append(groups, Group{Name: f.Family, Slug: s})
		}
		groups[i].Faces = append(groups[i].Faces, f)
	}
	return groups
}

type Generator struct {
	// AssetURL is the public base URL of the asset root, e.g. /fonts or
	// https://cdn.example.com/safefonts.
	AssetURL string
}

func NewGenerator(assetURL string) *Generator {
	return &Generator{AssetURL: assetURL}
}

// URL resolves a stored relative path to its public URL.
func (g *Generator) URL(rel string) string {
	segs := strings.Split(strings.Trim(rel, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.TrimRight(g.AssetURL, "/") + "/" + strings.Join(segs, "/")
}

// StylesheetURL appends a cache busting version token to the stylesheet URL.
func (g *Generator) StylesheetURL(version int64) string {
	return fmt.Sprintf("%s?ver=%d", g.URL(StylesheetName), version)
}

// CSS renders the @font-face rules, one class per family and a :root block
// of custom properties. faces must already be in registry order.
func (g *Generator) CSS(faces []Face) []byte {
	if len(faces) == 0 {
		return []byte(EmptyCSS)
	}

	var b bytes.Buffer
	b.WriteString("/* SafeFonts - Generated CSS */\n\n")
	section(&b, "FONT FACE DECLARATIONS")
	for _, f := range faces {
		fmt.Fprintf(&b, "@font-face {\n")
		fmt.Fprintf(&b, "  font-family: '%s';\n", cssString(f.Family))
		fmt.Fprintf(&b, "  font-style: %s;\n", cssIdent(f.Style, "normal"))
		fmt.Fprintf(&b, "  font-weight: %s;\n", cssIdent(f.Weight, "400"))
		fmt.Fprintf(&b, "  font-display: swap;\n")
		fmt.Fprintf(&b, "  src: url('%s') format('%s');\n", g.URL(f.Path), Format(f.Extension()))
		fmt.Fprintf(&b, "}\n\n")
	}

	groups := GroupFaces(faces)
	section(&b, "FONT FAMILY CLASSES")
	for _, grp := range groups {
		fmt.Fprintf(&b, ".has-%s-font-family {\n", grp.Slug)
		fmt.Fprintf(&b, "  font-family: '%s', %s;\n", cssString(grp.Name), Fallback(grp.Name))
		fmt.Fprintf(&b, "}\n\n")
	}

	section(&b, "CSS CUSTOM PROPERTIES")
	b.WriteString(":root {\n")
	for _, grp := range groups {
		fmt.Fprintf(&b, "  %s: '%s', %s;\n", VariableName(grp.Slug), cssString(grp.Name), Fallback(grp.Name))
	}
	b.WriteString("}\n")
	return b.Bytes()
}

func section(b *bytes.Buffer, title string) {
	b.WriteString("/* ================================= */\n")
	fmt.Fprintf(b, "/*   %-32s*/\n", title)
	b.WriteString("/* ================================= */\n\n")
}

// VariableName is the custom property exposing a family's font stack.
func VariableName(familySlug string) string {
	return "--safefonts-" + familySlug
}

// ClassName is the editor utility class for a family.
func ClassName(familySlug string) string {
	return "has-" + familySlug + "-font-family"
}

// Format maps a file extension to its CSS format() hint. Unknown extensions
// fall back to truetype.
func Format(ext string) string {
	switch strings.ToLower(ext) {
	case "woff2":
		return "woff2"
	case "woff":
		return "woff"
	case "otf":
		return "opentype"
	}
	return "truetype"
}

// cssString escapes s for use inside a single quoted CSS string.
func cssString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '\'':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '<':
			b.WriteString(`\3c `)
		case r < 0x20 || r == 0x7f:
			// drop control characters, they cannot appear in a family name
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// cssIdent keeps only characters valid in a weight or style keyword.
func cssIdent(s, def string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, strings.ToLower(s))
	if s == "" {
		return def
	}
	return s
}
