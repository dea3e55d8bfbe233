package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Color is an RGB color with 0..1 components.
type Color struct {
	R, G, B float64
}

func (c Color) rgb() (int, int, int) {
	return int(c.R*255 + 0.5), int(c.G*255 + 0.5), int(c.B*255 + 0.5)
}

// Canvas is a single transparent page of fixed size on which the stamp is
// drawn. Coordinates are PDF user space: origin bottom-left, in points.
type Canvas struct {
	pdf    *gofpdf.Fpdf
	width  float64
	height float64
	images map[string]bool
}

// NewCanvas creates a one-page canvas of the given size.
func NewCanvas(width, height float64) *Canvas {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(true)
	pdf.AddPage()

	return &Canvas{
		pdf:    pdf,
		width:  width,
		height: height,
		images: make(map[string]bool),
	}
}

func (c *Canvas) Width() float64  { return c.width }
func (c *Canvas) Height() float64 { return c.height }

// RegisterFont embeds a TrueType font under family/style. The font is
// subset on output and may cover any script.
func (c *Canvas) RegisterFont(family, style string, ttf []byte) error {
	c.pdf.AddUTF8FontFromBytes(family, style, ttf)
	if err := c.pdf.Error(); err != nil {
		return fmt.Errorf("register font %s%s: %w", family, style, err)
	}
	return nil
}

// Line strokes a line between two points.
func (c *Canvas) Line(x1, y1, x2, y2, thickness float64, col Color) {
	c.pdf.SetLineWidth(thickness)
	c.pdf.SetDrawColor(col.rgb())
	c.pdf.Line(x1, c.height-y1, x2, c.height-y2)
}

// Image places a PNG with its lower-left corner at x, y.
func (c *Canvas) Image(name string, png []byte, x, y, w, h float64) error {
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	if !c.images[name] {
		c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
		if err := c.pdf.Error(); err != nil {
			return fmt.Errorf("register image %s: %w", name, err)
		}
		c.images[name] = true
	}
	c.pdf.ImageOptions(name, x, c.height-y-h, w, h, false, opts, 0, "")
	return nil
}

// Text draws s with its baseline starting at x, y.
func (c *Canvas) Text(s string, x, y, size float64, family, style string, col Color) {
	c.pdf.SetFont(family, style, size)
	c.pdf.SetTextColor(col.rgb())
	c.pdf.Text(x, c.height-y, s)
}

// TextWidth measures s in the given font.
func (c *Canvas) TextWidth(s string, size float64, family, style string) float64 {
	c.pdf.SetFont(family, style, size)
	return c.pdf.GetStringWidth(s)
}

// Bytes renders the canvas to a PDF.
func (c *Canvas) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
