package media

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var (
	regularOnce sync.Once
	regularFont *opentype.Font
	errRegular  error

	faceCache sync.Map
)

// faceSized returns a cached Go Regular face at size points.
func faceSized(size float64) (font.Face, error) {
	fnt, err := loadRegular()
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("%.2f", size)
	if face, ok := faceCache.Load(cacheKey); ok {
		return face.(font.Face), nil
	}

	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face size %.2f: %w", size, err)
	}

	actual, _ := faceCache.LoadOrStore(cacheKey, face)
	return actual.(font.Face), nil
}

func loadRegular() (*opentype.Font, error) {
	regularOnce.Do(func() {
		fnt, err := opentype.Parse(goregular.TTF)
		if err != nil {
			errRegular = fmt.Errorf("parse go regular font: %w", err)
			return
		}
		regularFont = fnt
	})
	return regularFont, errRegular
}
