// Package render draws menu bar item frames labelled with their source
// process onto an image.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/mj1618/icepid/internal/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// LabelMode controls what text is drawn on each item.
type LabelMode int

const (
	// LabelPID draws the source PID, or "?" when unresolved.
	LabelPID LabelMode = iota
	// LabelWindowID draws "#id" window IDs.
	LabelWindowID
)

const padding = 4

var (
	resolvedColor   = color.RGBA{R: 0, G: 200, B: 80, A: 255}
	unresolvedColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	textColor       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor    = color.RGBA{R: 0, G: 0, B: 0, A: 200}
	canvasColor     = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// ErrNoItems is returned when there is nothing to draw.
var ErrNoItems = errors.New("no menu bar items to draw")

type Options struct {
	// Scale converts points to pixels on a generated canvas. Ignored when
	// Background is set.
	Scale float64
	// Background, when set, is an image of exactly Region.
	Background image.Image
	// Region is the screen area in points the image covers. Zero means the
	// union of the item frames plus a small margin.
	Region model.Rect
	Mode   LabelMode
}

// Overlay draws a box around each item and labels it.
func Overlay(items []model.MenuBarItem, opts Options) (*image.RGBA, model.Rect, error) {
	if len(items) == 0 {
		return nil, model.Rect{}, ErrNoItems
	}

	region := opts.Region
	if region.IsEmpty() {
		region = itemsRegion(items)
	}

	var rgba *image.RGBA
	var scaleX, scaleY float64
	if opts.Background != nil {
		rgba = ImageToRGBA(opts.Background)
		b := rgba.Bounds()
		scaleX = float64(b.Dx()) / region.Width
		scaleY = float64(b.Dy()) / region.Height
	} else {
		scale := opts.Scale
		if scale <= 0 {
			scale = 1
		}
		w := int(math.Ceil(region.Width * scale))
		h := int(math.Ceil(region.Height * scale))
		rgba = image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(rgba, rgba.Bounds(), image.NewUniform(canvasColor), image.Point{}, draw.Src)
		scaleX, scaleY = scale, scale
	}

	for _, item := range items {
		drawItem(rgba, item, region, scaleX, scaleY, opts.Mode)
	}
	return rgba, region, nil
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// ImageToRGBA converts any image to RGBA
func ImageToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

func itemsRegion(items []model.MenuBarItem) model.Rect {
	var r model.Rect
	for _, item := range items {
		r = r.Union(item.Window.Bounds)
	}
	return model.Rect{
		X:      r.X - padding,
		Y:      r.Y - padding,
		Width:  r.Width + 2*padding,
		Height: r.Height + 2*padding,
	}
}

// Label returns the text drawn for item.
func Label(item model.MenuBarItem, mode LabelMode) string {
	switch mode {
	case LabelWindowID:
		return fmt.Sprintf("#%d", item.Window.ID)
	default:
		if item.SourcePID <= 0 {
			return "?"
		}
		return fmt.Sprintf("%d", item.SourcePID)
	}
}

func drawItem(img *image.RGBA, item model.MenuBarItem, region model.Rect, scaleX, scaleY float64, mode LabelMode) {
	b := item.Window.Bounds
	// Screen points to image pixels, relative to the region origin.
	x := int(math.Round((b.X - region.X) * scaleX))
	y := int(math.Round((b.Y - region.Y) * scaleY))
	w := int(math.Round(b.Width * scaleX))
	h := int(math.Round(b.Height * scaleY))

	c := unresolvedColor
	if item.SourcePID > 0 {
		c = resolvedColor
	}
	drawRectangle(img, x, y, x+w, y+h, c)
	drawTextWithOutline(img, Label(item, mode), x+w/2, y+h/2)
}

func isWithinBounds(bounds image.Rectangle, x, y int) bool {
	return x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y
}

// drawRectangle draws a rectangle outline clamped to the image.
func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	bounds := img.Bounds()
	x1 = max(x1, bounds.Min.X)
	y1 = max(y1, bounds.Min.Y)
	x2 = min(x2, bounds.Max.X)
	y2 = min(y2, bounds.Max.Y)
	if x2 <= x1 || y2 <= y1 {
		return
	}

	for x := x1; x < x2; x++ {
		img.Set(x, y1, c)
		img.Set(x, y2-1, c)
	}
	for y := y1; y < y2; y++ {
		img.Set(x1, y, c)
		img.Set(x2-1, y, c)
	}
}

// drawTextWithOutline centers text on (x, y) with a one pixel outline.
func drawTextWithOutline(img *image.RGBA, text string, x, y int) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Round()
	// Dot is the baseline; Ascent puts the glyph box roughly centered.
	offsetX := x - textWidth/2
	offsetY := y + face.Ascent/2

	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			drawString(img, text, offsetX+dx, offsetY+dy, outlineColor)
		}
	}
	drawString(img, text, offsetX, offsetY, textColor)
}

func drawString(img *image.RGBA, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
