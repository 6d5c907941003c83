package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // background decoding
	"image/png"
	"os"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/eldtechnologies/haikunft/internal/models"
)

const (
	canvasSize = 1024
	margin     = 64
	titleSize  = 56
	bodySize   = 44
	lineGap    = 24
)

// Composer draws a haiku and its title onto a background image.
type Composer struct {
	background image.Image
}

// NewComposer creates a Composer. A nil background selects a plain gradient.
func NewComposer(background image.Image) *Composer {
	return &Composer{background: background}
}

// LoadBackground decodes a PNG or JPEG from path.
func LoadBackground(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode background %s: %w", path, err)
	}
	return img, nil
}

// Compose renders title and haiku and returns the PNG bytes.
func (c *Composer) Compose(title string, haiku models.Haiku) ([]byte, error) {
	titleFace, err := faceSized(titleSize)
	if err != nil {
		return nil, err
	}
	bodyFace, err := faceSized(bodySize)
	if err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, canvasSize, canvasSize))
	c.paintBackground(canvas)

	maxWidth := canvasSize - 2*margin
	titleLines := wrap(titleFace, strings.TrimSpace(title), maxWidth)
	var bodyLines []string
	for _, line := range haiku.Lines() {
		bodyLines = append(bodyLines, wrap(bodyFace, strings.TrimSpace(line), maxWidth)...)
	}

	titleHeight := lineHeight(titleFace)
	bodyHeight := lineHeight(bodyFace)
	blockHeight := len(titleLines)*(titleHeight+lineGap) + lineGap + len(bodyLines)*(bodyHeight+lineGap)
	top := (canvasSize - blockHeight) / 2

	band := image.Rect(0, top-margin/2, canvasSize, top+blockHeight+margin/2)
	draw.Draw(canvas, band, image.NewUniform(color.NRGBA{A: 140}), image.Point{}, draw.Over)

	y := top
	for _, line := range titleLines {
		y += titleHeight
		drawCentered(canvas, titleFace, line, y, color.NRGBA{R: 255, G: 220, B: 150, A: 255})
		y += lineGap
	}
	y += lineGap
	for _, line := range bodyLines {
		y += bodyHeight
		drawCentered(canvas, bodyFace, line, y, color.White)
		y += lineGap
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Composer) paintBackground(canvas *image.RGBA) {
	if c.background != nil {
		draw.CatmullRom.Scale(canvas, canvas.Bounds(), c.background, c.background.Bounds(), draw.Src, nil)
		return
	}

	// Vertical dusk gradient.
	from := [3]float64{24, 28, 64}
	to := [3]float64{196, 112, 92}
	for y := 0; y < canvasSize; y++ {
		t := float64(y) / float64(canvasSize-1)
		col := color.RGBA{
			R: uint8(from[0] + (to[0]-from[0])*t),
			G: uint8(from[1] + (to[1]-from[1])*t),
			B: uint8(from[2] + (to[2]-from[2])*t),
			A: 255,
		}
		for x := 0; x < canvasSize; x++ {
			canvas.SetRGBA(x, y, col)
		}
	}
}

func lineHeight(face font.Face) int {
	m := face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

func drawCentered(dst draw.Image, face font.Face, text string, baseline int, col color.Color) {
	width := font.MeasureString(face, text).Ceil()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P((canvasSize-width)/2, baseline),
	}
	d.DrawString(text)
}

// wrap splits text into lines no wider than maxWidth. A single word wider
// than maxWidth is kept on its own line.
func wrap(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(face, candidate).Ceil() > maxWidth {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}
