package fontcss

type FontFace struct {
	FontFamily string   `json:"fontFamily"`
	FontStyle  string   `json:"fontStyle"`
	FontWeight string   `json:"fontWeight"`
	Src        []string `json:"src"`
}

// FontFamily is the block editor typography entry for one family.
type FontFamily struct {
	FontFamily string     `json:"fontFamily"`
	Name       string     `json:"name"`
	Slug       string     `json:"slug"`
	FontFace   []FontFace `json:"fontFace"`
}

// Collection is the font library payload listing every family.
type Collection struct {
	Slug         string       `json:"slug"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	FontFamilies []FontFamily `json:"font_families"`
}

func (g *Generator) EditorFamilies(groups []Group) []FontFamily {
	out := make([]FontFamily, 0, len(groups))
	for _, grp := range groups {
		faces := make([]FontFace, 0, len(grp.Faces))
		for _, f := range grp.Faces {
			faces = append(faces, FontFace{
				FontFamily: grp.Name,
				FontStyle:  f.Style,
				FontWeight: f.Weight,
				Src:        []string{g.URL(f.Path)},
			})
		}
		out = append(out, FontFamily{
			FontFamily: grp.Name,
			Name:       grp.Name,
			Slug:       grp.Slug,
			FontFace:   faces,
		})
	}
	return out
}

// Collection returns nil when there is nothing to register.
func (g *Generator) Collection(groups []Group) *Collection {
	families := g.EditorFamilies(groups)
	if len(families) == 0 {
		return nil
	}
	return &Collection{
		Slug:         "safefonts",
		Name:         "SafeFonts",
		Description:  "Locally hosted fonts managed by SafeFonts",
		FontFamilies: families,
	}
}
