package slug

import (
	"regexp"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Roboto":              "roboto",
		"Open Sans":           "open-sans",
		"  Fira   Code  ":     "fira-code",
		"Source_Serif 4":      "source-serif-4",
		"Crème Brûlée":        "creme-brulee",
		"Straße Grotesk":      "strasse-grotesk",
		"IBM Plex Mono (v2)!": "ibm-plex-mono-v2",
		"../../etc/passwd":    "etc-passwd",
	}
	for in, want := range cases {
		assert.Equal(t, want, Make(in), "Make(%q)", in)
	}
}

func TestMakeFallback(t *testing.T) {
	a := Make("日本語")
	b := Make("中文")
	assert.Regexp(t, `^family-[0-9a-f]{8}$`, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Make("日本語"))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Roboto-Regular", Filename("Roboto-Regular"))
	assert.Equal(t, "my_font-v2", Filename("my_font v2"))
	assert.Equal(t, "etc-passwd", Filename("../etc/passwd"))
	assert.Equal(t, "font", Filename("..."))
	assert.Equal(t, "Cafe", Filename("Café"))
}

func TestMakeShapeProperty(t *testing.T) {
	shape := regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("slug is always path safe", prop.ForAll(
		func(s string) bool {
			return shape.MatchString(Make(s))
		},
		gen.AnyString(),
	))
	properties.Property("slug is stable", prop.ForAll(
		func(s string) bool {
			first := Make(s)
			return Make(first) == first
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
