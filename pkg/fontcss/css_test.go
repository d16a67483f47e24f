package fontcss

import (
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var roboto = Face{ID: 1, Family: "Roboto", Slug: "roboto", Style: "normal", Weight: "400", Path: "roboto/Roboto-Regular-1700000000.woff2"}

func TestCSSRoboto(t *testing.T) {
	g := NewGenerator("/fonts/")
	css := string(g.CSS([]Face{roboto}))

	want := `/* SafeFonts - Generated CSS */

/* ================================= */
/*   FONT FACE DECLARATIONS          */
/* ================================= */

@font-face {
  font-family: 'Roboto';
  font-style: normal;
  font-weight: 400;
  font-display: swap;
  src: url('/fonts/roboto/Roboto-Regular-1700000000.woff2') format('woff2');
}

/* ================================= */
/*   FONT FAMILY CLASSES             */
/* ================================= */

.has-roboto-font-family {
  font-family: 'Roboto', sans-serif;
}

/* ================================= */
/*   CSS CUSTOM PROPERTIES           */
/* ================================= */

:root {
  --safefonts-roboto: 'Roboto', sans-serif;
}
`
	if diff := cmp.Diff(want, css); diff != "" {
		t.Fatalf("CSS mismatch (-want +got):\n%s", diff)
	}
}

func TestCSSEmpty(t *testing.T) {
	assert.Equal(t, EmptyCSS, string(NewGenerator("/fonts").CSS(nil)))
}

func TestCSSFormatsAndFamilies(t *testing.T) {
	g := NewGenerator("https://cdn.example.com/safefonts")
	faces := []Face{
		{Family: "Fira Code", Style: "normal", Weight: "400", Path: "fira-code/fira.ttf"},
		{Family: "Fira Code", Style: "italic", Weight: "700", Path: "fira-code/fira-bold.otf"},
		{Family: "Lobster Script", Style: "normal", Weight: "400", Path: "lobster-script/l.woff"},
		{Family: "Odd", Style: "normal", Weight: "400", Path: "odd/odd.eot"},
	}
	css := string(g.CSS(faces))

	assert.Contains(t, css, "src: url('https://cdn.example.com/safefonts/fira-code/fira.ttf') format('truetype');")
	assert.Contains(t, css, "format('opentype');")
	assert.Contains(t, css, "format('woff');")
	assert.Equal(t, 2, strings.Count(css, "format('truetype')"), "unknown extensions fall back to truetype")
	assert.Contains(t, css, ".has-fira-code-font-family {\n  font-family: 'Fira Code', monospace;\n}")
	assert.Contains(t, css, "font-family: 'Lobster Script', cursive, sans-serif;")
	assert.Equal(t, 1, strings.Count(css, ".has-fira-code-font-family"))
	assert.Contains(t, css, "  --safefonts-odd: 'Odd', sans-serif;\n")
}

func TestCSSEscaping(t *testing.T) {
	g := NewGenerator("/fonts")
	css := string(g.CSS([]Face{{
		Family: "Evil'; } body { color: red; </style>",
		Style:  "normal;}",
		Weight: "400",
		Path:   "evil/a b'.woff2",
	}}))

	assert.Contains(t, css, `font-family: 'Evil\'; } body { color: red; \3c /style>';`)
	assert.Contains(t, css, "font-style: normal;\n")
	assert.Contains(t, css, "url('/fonts/evil/a%20b%27.woff2')")
	assert.NotContains(t, css, "</style>")
}

func TestFallback(t *testing.T) {
	cases := map[string]string{
		"JetBrains Mono":     "monospace",
		"Source Code Pro":    "monospace",
		"Courier Prime":      "monospace",
		"Libre Baskerville":  "serif",
		"Times New Roman":    "serif",
		"EB Garamond":        "serif",
		"Great Vibes Script": "cursive, sans-serif",
		"Permanent Brush":    "cursive, sans-serif",
		"Roboto":             "sans-serif",
		"":                   "sans-serif",
	}
	for family, want := range cases {
		assert.Equal(t, want, Fallback(family), family)
	}
}

func TestAddThenRemoveRestoresCSS(t *testing.T) {
	g := NewGenerator("/fonts")
	base := []Face{
		roboto,
		{ID: 2, Family: "Roboto", Slug: "roboto", Style: "normal", Weight: "700", Path: "roboto/b.woff2"},
	}
	before := g.CSS(base)

	added := append(append([]Face{}, base...), Face{ID: 3, Family: "Lato", Slug: "lato", Style: "italic", Weight: "300", Path: "lato/l.woff2"})
	sortFaces(added)
	mid := g.CSS(added)
	require.NotEqual(t, string(before), string(mid))

	removed := make([]Face, 0, len(added))
	for _, f := range added {
		if f.ID != 3 {
			removed = append(removed, f)
		}
	}
	assert.Equal(t, string(before), string(g.CSS(removed)))
}

// sortFaces mirrors the registry order: family, weight, id.
func sortFaces(faces []Face) {
	sort.SliceStable(faces, func(i, j int) bool {
		a, b := faces[i], faces[j]
		if a.Family != b.Family {
			return a.Family < b.Family
		}
		if a.Weight != b.Weight {
			return a.Weight < b.Weight
		}
		return a.ID < b.ID
	})
}

func genFace() gopter.Gen {
	return gopter.CombineGens(
		gen.Int64Range(1, 1<<40),
		gen.OneConstOf("Roboto", "Open Sans", "Fira Code", "Lora", "Crème Brûlée"),
		gen.OneConstOf("normal", "italic"),
		gen.OneConstOf("100", "200", "300", "400", "500", "600", "700", "800", "900"),
		gen.OneConstOf("woff2", "woff", "ttf", "otf"),
		gen.AlphaString(),
	).Map(func(v []interface{}) Face {
		name := v[5].(string)
		if name == "" {
			name = "font"
		}
		return Face{
			ID:     v[0].(int64),
			Family: v[1].(string),
			Style:  v[2].(string),
			Weight: v[3].(string),
			Path:   "dir/" + name + "." + v[4].(string),
		}
	})
}

func TestCSSIdempotentProperty(t *testing.T) {
	g := NewGenerator("/fonts")
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("same snapshot renders identical bytes", prop.ForAll(
		func(faces []Face) bool {
			sortFaces(faces)
			a := g.CSS(faces)
			b := g.CSS(append([]Face(nil), faces...))
			return string(a) == string(b)
		},
		gen.SliceOf(genFace()),
	))

	properties.Property("every face gets exactly one @font-face", prop.ForAll(
		func(faces []Face) bool {
			css := string(g.CSS(faces))
			return len(faces) == 0 || strings.Count(css, "@font-face {") == len(faces)
		},
		gen.SliceOf(genFace()),
	))

	properties.TestingRun(t)
}

func TestCSSFamiliesDifferingInCase(t *testing.T) {
	g := NewGenerator("/fonts")
	css := string(g.CSS([]Face{
		{Family: "Open Sans", Slug: "open-sans", Style: "normal", Weight: "400", Path: "open-sans/r.woff2"},
		{Family: "Roboto", Slug: "roboto", Style: "normal", Weight: "400", Path: "roboto/r.woff2"},
		{Family: "open sans", Style: "italic", Weight: "700", Path: "open-sans/bi.woff2"},
	}))

	assert.Equal(t, 3, strings.Count(css, "@font-face"))
	assert.Equal(t, 1, strings.Count(css, ".has-open-sans-font-family"))
	assert.Equal(t, 1, strings.Count(css, "--safefonts-open-sans:"))
	assert.Contains(t, css, "  --safefonts-open-sans: 'Open Sans', sans-serif;\n")
}
