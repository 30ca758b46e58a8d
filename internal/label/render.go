// ABOUTME: Deterministic label rendering for beer records.
// ABOUTME: Draws fixed-position white text on a 580x400 dark green canvas and encodes PNG.
package label

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/2389-research/kultpiva/internal/models"
)

// Label geometry.
const (
	Width   = 580
	Height  = 400
	Padding = 20
)

// Background is the label canvas color #11261A.
var Background = color.RGBA{R: 0x11, G: 0x26, B: 0x1A, A: 0xff}

// Foreground is the text color.
var Foreground = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Options configures the fixed strings and fonts on a label.
type Options struct {
	Brand       string
	PricePrefix string
	Currency    string
	BoldFont    string
	RegularFont string
}

// DefaultOptions returns the stock brand, price wording, and built-in fonts.
func DefaultOptions() Options {
	return Options{
		Brand:       "КультПива",
		PricePrefix: "Цена за 1л:",
		Currency:    "₽",
	}
}

// PriceLine composes the price text shown on the label.
func (o Options) PriceLine(price string) string {
	parts := []string{o.PricePrefix, price, o.Currency}
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// line is one text row: top edge y and style.
type line struct {
	y     int
	style Style
}

var layout = [numStyles]line{
	{15, StyleBrand},
	{65, StyleName},
	{115, StyleType},
	{165, StylePrice},
	{215, StyleGreeting},
}

// Renderer draws labels with a resolved font set. Safe for concurrent use.
type Renderer struct {
	mu    sync.Mutex
	opts  Options
	fonts *FontSet
}

// NewRenderer resolves fonts for opts and returns a renderer.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{
		opts:  opts,
		fonts: LoadFontSet(opts.BoldFont, opts.RegularFont),
	}
}

// Fonts returns the resolved font set.
func (r *Renderer) Fonts() *FontSet {
	return r.fonts
}

// Lines returns the five label strings for rec, top to bottom.
func (r *Renderer) Lines(rec *models.BeerRecord) [numStyles]string {
	return [numStyles]string{
		r.opts.Brand,
		rec.Name,
		rec.Type,
		r.opts.PriceLine(rec.Price),
		rec.Greeting,
	}
}

// Render draws rec onto a new opaque Width x Height image. Text is neither
// wrapped nor truncated; anything past the canvas edge is clipped.
func (r *Renderer) Render(rec *models.BeerRecord) *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	texts := r.Lines(rec)
	for i, l := range layout {
		face := r.fonts.Face(l.style)
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(Foreground),
			Face: face,
			Dot:  fixed.P(Padding, l.y+face.Metrics().Ascent.Ceil()),
		}
		d.DrawString(texts[i])
	}
	return img
}

// RenderPNG renders rec and returns the PNG encoding.
func (r *Renderer) RenderPNG(rec *models.BeerRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, r.Render(rec)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
