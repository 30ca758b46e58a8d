// ABOUTME: Font resolution for label rendering.
// ABOUTME: Picks a configured or built-in face per text style, degrading to one bitmap font.
package label

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Style identifies one of the fixed text styles on a label.
type Style int

const (
	StyleBrand Style = iota
	StyleName
	StyleType
	StylePrice
	StyleGreeting
	numStyles
)

// styleSpec holds the point size and weight for each style.
var styleSpec = [numStyles]struct {
	size float64
	bold bool
}{
	StyleBrand:    {28, true},
	StyleName:     {26, true},
	StyleType:     {22, false},
	StylePrice:    {22, true},
	StyleGreeting: {18, false},
}

// builtinName labels faces that come from the embedded Go fonts.
const builtinName = "go-fonts"

// defaultName labels the bitmap fallback face.
const defaultName = "basicfont-7x13"

// FontSet is a resolved face for every label style.
type FontSet struct {
	faces [numStyles]font.Face

	// Sources names where each style's face came from.
	Sources [numStyles]string

	// Degraded is set when no scalable font could be loaded and every style
	// uses the single built-in bitmap face.
	Degraded bool
}

// Face returns the face for a style.
func (fs *FontSet) Face(s Style) font.Face {
	return fs.faces[s]
}

type fontSource struct {
	name string
	data []byte
}

// LoadFontSet resolves faces from the configured font files, falling back to
// the embedded Go fonts per style. It never fails.
func LoadFontSet(boldPath, regularPath string) *FontSet {
	bold := []fontSource{{builtinName, gobold.TTF}}
	regular := []fontSource{{builtinName, goregular.TTF}}
	if src, ok := readFontFile(boldPath); ok {
		bold = append([]fontSource{src}, bold...)
	}
	if src, ok := readFontFile(regularPath); ok {
		regular = append([]fontSource{src}, regular...)
	}
	return loadFontSet(bold, regular)
}

func readFontFile(path string) (fontSource, bool) {
	if path == "" {
		return fontSource{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fontSource{}, false
	}
	return fontSource{name: path, data: data}, true
}

func loadFontSet(bold, regular []fontSource) *FontSet {
	fs := &FontSet{}
	parsed := map[string]*opentype.Font{}

	for s := Style(0); s < numStyles; s++ {
		spec := styleSpec[s]
		candidates := regular
		if spec.bold {
			candidates = bold
		}

		face, name, err := firstFace(candidates, spec.size, parsed)
		if err != nil {
			return defaultFontSet()
		}
		fs.faces[s] = face
		fs.Sources[s] = name
	}
	return fs
}

func firstFace(candidates []fontSource, size float64, parsed map[string]*opentype.Font) (font.Face, string, error) {
	for _, c := range candidates {
		f, ok := parsed[c.name]
		if !ok {
			var err error
			f, err = opentype.Parse(c.data)
			if err != nil {
				continue
			}
			parsed[c.name] = f
		}
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			continue
		}
		return face, c.name, nil
	}
	return nil, "", fmt.Errorf("no usable font among %d candidates", len(candidates))
}

func defaultFontSet() *FontSet {
	fs := &FontSet{Degraded: true}
	for s := Style(0); s < numStyles; s++ {
		fs.faces[s] = basicfont.Face7x13
		fs.Sources[s] = defaultName
	}
	return fs
}
