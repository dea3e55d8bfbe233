package stamping

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"contract961/signing-backend/pkg/pdf"
)

// Store loads originals and persists signed copies.
type Store interface {
	Persister
	Load(ctx context.Context, ref string) ([]byte, error)
}

// Options configures an Engine.
type Options struct {
	PublicURL   string
	Issuer      Issuer
	Labels      Labels
	Layout      Layout
	Location    *time.Location
	Fonts       fs.FS // nil selects the built-in fonts
	RegularFont string
	BoldFont    string
}

// Engine stamps signature blocks into PDFs. It is safe for concurrent use;
// the font cache is its only shared state.
type Engine struct {
	store     Store
	fonts     *FontCache
	composer  *Composer
	finalizer *Finalizer
	layout    Layout
	logger    *zap.Logger
}

func NewEngine(store Store, qr QREncoder, opts Options, logger *zap.Logger) *Engine {
	fonts := NewFontCache(opts.Fonts, opts.RegularFont, opts.BoldFont)
	composer := NewComposer(qr, opts.PublicURL, opts.Issuer, opts.Labels, opts.Layout, opts.Location)
	composer.CheckGlyphs(fonts)
	return &Engine{
		store:     store,
		fonts:     fonts,
		composer:  composer,
		finalizer: NewFinalizer(store),
		layout:    opts.Layout,
		logger:    logger,
	}
}

// Stamp draws the signature block of req onto the last page of the
// original, or onto an appended page when the last page is too full, and
// stores the result.
func (e *Engine) Stamp(ctx context.Context, req Request) (*SignedResult, error) {
	logger := e.logger.With(zap.String("display_id", req.DisplayID))

	original := req.Original
	if original == nil {
		var err error
		if original, err = e.store.Load(ctx, req.OriginalRef); err != nil {
			return nil, fmt.Errorf("load original %s: %w", req.OriginalRef, err)
		}
	}

	doc, err := pdf.Open(original)
	if err != nil {
		return nil, fmt.Errorf("open original: %w", err)
	}
	page, err := doc.LastPage()
	if err != nil {
		return nil, fmt.Errorf("open original: %w", err)
	}

	lowestY := pdf.LowestContentY(page.Streams, page.Height, func(err error) {
		logger.Warn("Could not analyze page content, treating page as full",
			zap.Int("page", page.Number),
			zap.Error(err),
		)
	})
	decision := Decide(lowestY, e.layout)

	width, height := page.Width, page.Height
	if !decision.TargetsExistingPage {
		width, height = e.layout.NewPageWidth, e.layout.NewPageHeight
	}
	canvas := pdf.NewCanvas(width, height)
	if err := e.registerFonts(canvas); err != nil {
		return nil, err
	}
	if err := e.composer.Compose(canvas, decision.StartY, req); err != nil {
		return nil, err
	}
	overlay, err := canvas.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: render stamp: %v", ErrSerialization, err)
	}

	if decision.TargetsExistingPage {
		err = doc.Overlay(page.Number, overlay)
	} else {
		err = doc.AppendPages(overlay)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: apply stamp: %v", ErrSerialization, err)
	}

	result, err := e.finalizer.Finalize(ctx, doc, req.DisplayID)
	if err != nil {
		return nil, err
	}

	logger.Info("Document stamped",
		zap.Float64("lowest_y", lowestY),
		zap.Bool("existing_page", decision.TargetsExistingPage),
		zap.Float64("start_y", decision.StartY),
		zap.String("ref", result.StorageReference),
		zap.String("sha256", result.SHA256Hash),
	)
	return result, nil
}

func (e *Engine) registerFonts(c *pdf.Canvas) error {
	for _, role := range []FontRole{RoleRegular, RoleBold} {
		ttf, err := e.fonts.Load(role)
		if err != nil {
			return err
		}
		if err := c.RegisterFont(FontFamily, role.style(), ttf); err != nil {
			return fmt.Errorf("%w: %v", ErrAssetLoad, err)
		}
	}
	return nil
}
