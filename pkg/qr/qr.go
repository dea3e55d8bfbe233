// Package qr renders QR codes as PNG images for the signature stamp.
package qr

import (
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultPixels is the rendered edge length. The stamp scales the image
// down, so a generous raster keeps the modules crisp when printed.
const DefaultPixels = 256

var ErrEmptyContent = errors.New("qr: empty content")

// Generator encodes text into PNG QR codes.
type Generator struct {
	level  qrcode.RecoveryLevel
	pixels int
}

func NewGenerator() *Generator {
	return &Generator{level: qrcode.Medium, pixels: DefaultPixels}
}

// PNG returns content as a borderless square PNG.
func (g *Generator) PNG(content string) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	code, err := qrcode.New(content, g.level)
	if err != nil {
		return nil, fmt.Errorf("qr: encode: %w", err)
	}
	code.DisableBorder = true
	png, err := code.PNG(g.pixels)
	if err != nil {
		return nil, fmt.Errorf("qr: render: %w", err)
	}
	return png, nil
}
