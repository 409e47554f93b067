package galengine

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultFramePath is where the 9-slice frame template ships by default.
const DefaultFramePath = "public/frames/frame_9slice.png"

// FrameBorders are the fixed border widths of the 9-slice frame template:
// the four corner regions keep these exact pixel sizes while the edges
// stretch. The values must match the template asset.
type FrameBorders struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

// DefaultFrameBorders matches the shipped frame_9slice.png template.
var DefaultFrameBorders = FrameBorders{Top: 75, Right: 131, Bottom: 75, Left: 75}

// Decoration failure classes. ErrInvalidFrame is an operator error and is
// raised at startup; the other two occur per request.
var (
	ErrInvalidImage  = errors.New("invalid base image")
	ErrInvalidFrame  = errors.New("invalid frame template")
	ErrFrameGeometry = errors.New("frame borders exceed image size")
)

// Caption layout: right-aligned near the bottom-right corner, drawn over
// the finished composite so the frame never occludes it.
const (
	captionFontSize = 24
	captionMarginX  = 20
	captionMarginY  = 10
)

var captionColor = color.NRGBA{R: 255, G: 255, B: 255, A: 102} // white at 40%

// Decorator composites a 9-slice decorative frame and a caption onto base
// images at their native resolution, entirely in memory. The frame template
// and caption font are loaded once at construction; Decorate itself holds
// no state and is safe for concurrent use.
type Decorator struct {
	frame   *image.NRGBA
	borders FrameBorders
	face    font.Face
}

// NewDecorator loads and validates the frame template. An unreadable
// template or degenerate border geometry is a configuration error reported
// here, at startup, rather than on the first decoration request.
func NewDecorator(framePath string, borders FrameBorders) (*Decorator, error) {
	f, err := os.Open(framePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidFrame, framePath, err)
	}

	frame := imaging.Clone(img)
	w0 := frame.Bounds().Dx()
	h0 := frame.Bounds().Dy()
	if borders.Top <= 0 || borders.Right <= 0 || borders.Bottom <= 0 || borders.Left <= 0 {
		return nil, fmt.Errorf("%w: borders must be positive", ErrInvalidFrame)
	}
	if w0-borders.Left-borders.Right <= 0 || h0-borders.Top-borders.Bottom <= 0 {
		return nil, fmt.Errorf("%w: borders %+v leave no stretchable region in %dx%d template",
			ErrInvalidFrame, borders, w0, h0)
	}

	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse caption font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    captionFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("caption font face: %w", err)
	}

	return &Decorator{frame: frame, borders: borders, face: face}, nil
}

// frameSlice maps one region of the template onto the output image.
type frameSlice struct {
	src  image.Rectangle
	dest image.Rectangle
}

// Decorate returns a PNG of base with the frame's border ring stretched to
// its edges and caption rendered in the bottom-right corner. The output has
// exactly the pixel dimensions of base; the interior of the photograph
// stays fully visible because no center slice is drawn.
func (d *Decorator) Decorate(base image.Image, caption string) ([]byte, error) {
	w := base.Bounds().Dx()
	h := base.Bounds().Dy()
	if w == 0 || h == 0 {
		return nil, ErrInvalidImage
	}

	b := d.borders
	w0 := d.frame.Bounds().Dx()
	h0 := d.frame.Bounds().Dy()
	srcW := w0 - b.Left - b.Right
	srcH := h0 - b.Top - b.Bottom
	destW := w - b.Left - b.Right
	destH := h - b.Top - b.Bottom
	if destW <= 0 || destH <= 0 {
		return nil, fmt.Errorf("%w: borders %+v vs %dx%d image", ErrFrameGeometry, b, w, h)
	}

	// Corners copy at their fixed size; edges resample along one axis.
	// Composition order is top row, middle row, bottom row, so the corner
	// slices of each row land before and after its edge and keep the exact
	// corner pixels.
	slices := []frameSlice{
		{image.Rect(0, 0, b.Left, b.Top), image.Rect(0, 0, b.Left, b.Top)},
		{image.Rect(b.Left, 0, b.Left+srcW, b.Top), image.Rect(b.Left, 0, b.Left+destW, b.Top)},
		{image.Rect(w0-b.Right, 0, w0, b.Top), image.Rect(w-b.Right, 0, w, b.Top)},
		{image.Rect(0, b.Top, b.Left, b.Top+srcH), image.Rect(0, b.Top, b.Left, b.Top+destH)},
		{image.Rect(w0-b.Right, b.Top, w0, b.Top+srcH), image.Rect(w-b.Right, b.Top, w, b.Top+destH)},
		{image.Rect(0, h0-b.Bottom, b.Left, h0), image.Rect(0, h-b.Bottom, b.Left, h)},
		{image.Rect(b.Left, h0-b.Bottom, b.Left+srcW, h0), image.Rect(b.Left, h-b.Bottom, b.Left+destW, h)},
		{image.Rect(w0-b.Right, h0-b.Bottom, w0, h0), image.Rect(w-b.Right, h-b.Bottom, w, h)},
	}

	dst := imaging.Clone(base)
	for _, s := range slices {
		piece := imaging.Crop(d.frame, s.src)
		if s.src.Dx() != s.dest.Dx() || s.src.Dy() != s.dest.Dy() {
			piece = imaging.Resize(piece, s.dest.Dx(), s.dest.Dy(), imaging.Lanczos)
		}
		draw.Draw(dst, s.dest, piece, image.Point{}, draw.Over)
	}

	if caption != "" {
		d.drawCaption(dst, caption, w, h)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawCaption renders caption right-aligned with its baseline at
// (w-captionMarginX, h-captionMarginY), as a separate overlay after the
// frame so it is never occluded.
func (d *Decorator) drawCaption(dst draw.Image, caption string, w, h int) {
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(captionColor),
		Face: d.face,
	}
	width := drawer.MeasureString(caption)
	drawer.Dot = fixed.Point26_6{
		X: fixed.I(w-captionMarginX) - width,
		Y: fixed.I(h - captionMarginY),
	}
	drawer.DrawString(caption)
}
