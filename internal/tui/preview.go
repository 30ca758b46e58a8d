// ABOUTME: Terminal preview of a rendered label using half-block characters.
// ABOUTME: Each cell shows two box-averaged pixel rows as foreground and background colors.
package tui

import (
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// halfBlock draws the top pixel in the foreground color and the bottom in the background.
const halfBlock = "▀"

// PreviewSize returns the cell grid used to show an image of the given size in cols columns.
func PreviewSize(bounds image.Rectangle, cols int) (width, height int) {
	if cols <= 0 || bounds.Dx() == 0 || bounds.Dy() == 0 {
		return 0, 0
	}
	pxRows := cols * bounds.Dy() / bounds.Dx()
	if pxRows < 2 {
		pxRows = 2
	}
	return cols, pxRows / 2
}

// RenderPreview downsamples img to cols columns of half-block cells.
func RenderPreview(img image.Image, cols int) string {
	b := img.Bounds()
	w, h := PreviewSize(b, cols)
	if w == 0 || h == 0 {
		return ""
	}

	var sb strings.Builder
	for row := 0; row < h; row++ {
		var run strings.Builder
		var runTop, runBottom string
		flush := func() {
			if run.Len() == 0 {
				return
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(runTop)).
				Background(lipgloss.Color(runBottom))
			sb.WriteString(style.Render(run.String()))
			run.Reset()
		}

		for col := 0; col < w; col++ {
			top := hexColor(average(img, b, col, 2*row, w, 2*h))
			bottom := hexColor(average(img, b, col, 2*row+1, w, 2*h))
			if top != runTop || bottom != runBottom {
				flush()
				runTop, runBottom = top, bottom
			}
			run.WriteString(halfBlock)
		}
		flush()
		if row < h-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// average returns the mean color of the source box mapped to grid cell (gx, gy)
// in a gw x gh grid.
func average(img image.Image, b image.Rectangle, gx, gy, gw, gh int) color.RGBA {
	x0 := b.Min.X + gx*b.Dx()/gw
	x1 := b.Min.X + (gx+1)*b.Dx()/gw
	y0 := b.Min.Y + gy*b.Dy()/gh
	y1 := b.Min.Y + (gy+1)*b.Dy()/gh
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}

	var r, g, bl, n uint64
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			r += uint64(cr >> 8)
			g += uint64(cg >> 8)
			bl += uint64(cb >> 8)
			n++
		}
	}
	return color.RGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(bl / n), A: 0xff}
}

func hexColor(c color.RGBA) string {
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}
