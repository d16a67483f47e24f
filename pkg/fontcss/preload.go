package fontcss

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Identifier is the preload key of a face: "{family}-{weight}" with an
// "italic" suffix for italic faces, e.g. "Roboto-700italic".
func Identifier(f Face) string {
	id := f.Family + "-" + f.Weight
	if f.Style == "italic" {
		id += "italic"
	}
	return id
}

var identifierRe = regexp.MustCompile(`-[1-9]00(italic)?$`)

// IsIdentifier reports whether s looks like a family-weight identifier
// rather than a bare family name.
func IsIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// PreloadMIME maps a file extension to the type attribute of a preload hint.
func PreloadMIME(ext string) string {
	switch strings.ToLower(ext) {
	case "woff":
		return "font/woff"
	case "ttf":
		return "font/ttf"
	case "otf":
		return "font/otf"
	}
	return "font/woff2"
}

type PreloadHint struct {
	Identifier string `json:"identifier"`
	Family     string `json:"family"`
	Weight     string `json:"weight"`
	Style      string `json:"style"`
	URL        string `json:"url"`
	MIME       string `json:"mime"`
}

// LinkTag renders the hint as an HTML <link rel="preload"> element.
func (h PreloadHint) LinkTag() string {
	return fmt.Sprintf(`<link rel="preload" href="%s" as="font" type="%s" crossorigin>`,
		html.EscapeString(h.URL), html.EscapeString(h.MIME))
}

// PreloadHints returns a hint for every face selected by ids, in face order.
func (g *Generator) PreloadHints(faces []Face, ids []string) []PreloadHint {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	hints := make([]PreloadHint, 0, len(ids))
	for _, f := range faces {
		id := Identifier(f)
		if !want[id] {
			continue
		}
		hints = append(hints, PreloadHint{
			Identifier: id,
			Family:     f.Family,
			Weight:     f.Weight,
			Style:      f.Style,
			URL:        g.URL(f.Path),
			MIME:       PreloadMIME(f.Extension()),
		})
	}
	return hints
}

var weightNames = map[string]string{
	"100": "Thin",
	"200": "Extra Light",
	"300": "Light",
	"400": "Regular",
	"500": "Medium",
	"600": "Semi Bold",
	"700": "Bold",
	"800": "Extra Bold",
	"900": "Black",
}

// WeightLabel renders e.g. "700 (Bold) Italic - WOFF2".
func WeightLabel(weight, style, format string) string {
	name, ok := weightNames[weight]
	if !ok {
		name = "Regular"
	}
	label := weight + " (" + name + ")"
	if style == "italic" {
		label += " Italic"
	}
	return label + " - " + strings.ToUpper(format)
}

type PreloadOption struct {
	Identifier string `json:"identifier"`
	Weight     string `json:"weight"`
	Style      string `json:"style"`
	Format     string `json:"format"`
	Label      string `json:"label"`
	Selected   bool   `json:"selected"`
}

type PreloadFamily struct {
	Family  string          `json:"family"`
	Options []PreloadOption `json:"options"`
}

// PreloadOptions lists every selectable face per family for the settings UI.
func PreloadOptions(groups []Group, selected []string) []PreloadFamily {
	sel := make(map[string]bool, len(selected))
	for _, id := range selected {
		sel[id] = true
	}
	out := make([]PreloadFamily, 0, len(groups))
	for _, grp := range groups {
		pf := PreloadFamily{Family: grp.Name}
		for _, f := range grp.Faces {
			id := Identifier(f)
			pf.Options = append(pf.Options, PreloadOption{
				Identifier: id,
				Weight:     f.Weight,
				Style:      f.Style,
				Format:     f.Extension(),
				Label:      WeightLabel(f.Weight, f.Style, f.Extension()),
				Selected:   sel[id],
			})
		}
		out = append(out, pf)
	}
	return out
}

// MigratePreloadIDs expands bare family names into the identifiers of all
// that family's faces. Entries that are already identifiers are kept, names
// of families that no longer exist are dropped. The result is de-duplicated
// and changed reports whether anything was rewritten.
func MigratePreloadIDs(ids []string, faces []Face) (out []string, changed bool) {
	needs := false
	for _, id := range ids {
		if !IsIdentifier(id) {
			needs = true
			break
		}
	}
	if !needs {
		return ids, false
	}

	byFamily := map[string][]string{}
	for _, f := range faces {
		byFamily[f.Family] = append(byFamily[f.Family], Identifier(f))
	}
	seen := map[string]bool{}
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range ids {
		if IsIdentifier(id) {
			add(id)
			continue
		}
		for _, expanded := range byFamily[id] {
			add(expanded)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out, true
}
