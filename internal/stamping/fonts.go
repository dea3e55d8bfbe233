package stamping

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"golang.org/x/image/font/sfnt"
)

// FontRole selects a face of the stamp font family.
type FontRole string

const (
	RoleRegular FontRole = "regular"
	RoleBold    FontRole = "bold"
)

// style maps a role to the style string of the canvas font registry.
func (r FontRole) style() string {
	if r == RoleBold {
		return "B"
	}
	return ""
}

//go:embed fonts/*.ttf
var builtinFonts embed.FS

var builtinNames = map[FontRole]string{
	RoleRegular: "fonts/DejaVuSansCondensed.ttf",
	RoleBold:    "fonts/DejaVuSansCondensed-Bold.ttf",
}

// FontCache loads TrueType bytes once per role. Without a file system it
// serves the embedded DejaVu Sans Condensed faces.
type FontCache struct {
	fsys  fs.FS
	names map[FontRole]string
	fonts sync.Map // FontRole -> []byte
	faces sync.Map // FontRole -> *sfnt.Font
}

func NewFontCache(fsys fs.FS, regular, bold string) *FontCache {
	names := map[FontRole]string{
		RoleRegular: regular,
		RoleBold:    bold,
	}
	if fsys == nil {
		fsys, names = builtinFonts, builtinNames
	}
	return &FontCache{fsys: fsys, names: names}
}

// Load returns the font bytes for role. Concurrent first calls may read the
// file more than once; all callers get the first stored buffer.
func (c *FontCache) Load(role FontRole) ([]byte, error) {
	if b, ok := c.fonts.Load(role); ok {
		return b.([]byte), nil
	}
	b, err := c.read(role)
	if err != nil {
		return nil, err
	}
	actual, _ := c.fonts.LoadOrStore(role, b)
	return actual.([]byte), nil
}

// Covers returns ErrAssetLoad naming the first rune of s that the face of
// role has no glyph for.
func (c *FontCache) Covers(role FontRole, s string) error {
	face, err := c.face(role)
	if err != nil {
		return err
	}
	var buf sfnt.Buffer
	for _, r := range s {
		idx, err := face.GlyphIndex(&buf, r)
		if err != nil {
			return fmt.Errorf("%w: %s font: %v", ErrAssetLoad, role, err)
		}
		if idx == 0 {
			return fmt.Errorf("%w: %s font has no glyph for %q (U+%04X)", ErrAssetLoad, role, r, r)
		}
	}
	return nil
}

func (c *FontCache) face(role FontRole) (*sfnt.Font, error) {
	if f, ok := c.faces.Load(role); ok {
		return f.(*sfnt.Font), nil
	}
	b, err := c.Load(role)
	if err != nil {
		return nil, err
	}
	f, err := sfnt.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s font: %v", ErrAssetLoad, role, err)
	}
	actual, _ := c.faces.LoadOrStore(role, f)
	return actual.(*sfnt.Font), nil
}

func (c *FontCache) read(role FontRole) ([]byte, error) {
	name, ok := c.names[role]
	if !ok {
		return nil, fmt.Errorf("%w: unknown font role %q", ErrAssetLoad, role)
	}
	b, err := fs.ReadFile(c.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: font %s: %v", ErrAssetLoad, name, err)
	}
	return b, nil
}
