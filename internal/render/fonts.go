package render

import (
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Platform font candidates, tried in order. The embedded Go faces are the
// final fallback so text always renders.
var boldFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
	"/Library/Fonts/Arial Bold.ttf",
	"C:/Windows/Fonts/arialbd.ttf",
	"C:/Windows/Fonts/calibrib.ttf",
}

var regularFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/Library/Fonts/Arial.ttf",
	"C:/Windows/Fonts/arial.ttf",
	"C:/Windows/Fonts/calibri.ttf",
}

func loadBoldFace(size float64) font.Face {
	return loadFace(boldFontPaths, gobold.TTF, size)
}

func loadRegularFace(size float64) font.Face {
	return loadFace(regularFontPaths, goregular.TTF, size)
}

func loadFace(paths []string, fallbackTTF []byte, size float64) font.Face {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if face, err := newFace(data, size); err == nil {
			return face
		}
	}

	face, err := newFace(fallbackTTF, size)
	if err != nil {
		// The embedded faces always parse.
		panic(err)
	}
	return face
}

func newFace(ttf []byte, size float64) (font.Face, error) {
	parsed, err := opentype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
