package fontcss

import "strings"

var fallbacks = []struct {
	keywords []string
	stack    string
}{
	{[]string{"mono", "code", "courier", "console"}, "monospace"},
	{[]string{"serif", "times", "garamond", "baskerville", "caslon"}, "serif"},
	{[]string{"script", "cursive", "handwriting", "brush"}, "cursive, sans-serif"},
}

// Fallback guesses a generic font stack from the family name. It is a
// keyword heuristic; anything unrecognised gets sans-serif.
func Fallback(family string) string {
	lower := strings.ToLower(family)
	for _, fb := range fallbacks {
		for _, k := range fb.keywords {
			if strings.Contains(lower, k) {
				return fb.stack
			}
		}
	}
	return "sans-serif"
}
