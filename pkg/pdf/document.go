package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ContentStream is one page content stream as stored in the file, with the
// names of its declared filters in pipeline order.
type ContentStream struct {
	Data    []byte
	Filters []string
}

// Page is a read-only view of a document page.
type Page struct {
	Number  int
	Width   float64
	Height  float64
	Streams []ContentStream
}

// Document is an in-memory PDF backed by pdfcpu. Mutations rewrite the
// document through pdfcpu and reload it, so the context always reflects
// the latest state.
type Document struct {
	ctx  *model.Context
	data []byte
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Open parses and validates a PDF.
func Open(data []byte) (*Document, error) {
	ctx, err := read(data)
	if err != nil {
		return nil, err
	}
	return &Document{ctx: ctx, data: data}, nil
}

func read(data []byte) (*model.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("pdfcpu validate: %w", err)
	}
	return ctx, nil
}

func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Page returns the dimensions and raw content streams of page pageNr (1-based).
func (d *Document) Page(pageNr int) (*Page, error) {
	if pageNr < 1 || pageNr > d.ctx.PageCount {
		return nil, fmt.Errorf("page %d out of range (1..%d)", pageNr, d.ctx.PageCount)
	}
	dims, err := d.ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("page dimensions: %w", err)
	}
	pageDict, _, _, err := d.ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", pageNr, err)
	}
	streams, err := d.contentStreams(pageDict)
	if err != nil {
		return nil, fmt.Errorf("page %d contents: %w", pageNr, err)
	}
	return &Page{
		Number:  pageNr,
		Width:   dims[pageNr-1].Width,
		Height:  dims[pageNr-1].Height,
		Streams: streams,
	}, nil
}

// LastPage is Page(PageCount()).
func (d *Document) LastPage() (*Page, error) {
	return d.Page(d.ctx.PageCount)
}

func (d *Document) contentStreams(pageDict types.Dict) ([]ContentStream, error) {
	o, found := pageDict.Find("Contents")
	if !found || o == nil {
		return nil, nil
	}
	o, err := d.ctx.Dereference(o)
	if err != nil {
		return nil, err
	}

	var streams []ContentStream
	switch obj := o.(type) {
	case types.StreamDict:
		streams = append(streams, contentStreamOf(obj))
	case types.Array:
		for _, e := range obj {
			eo, err := d.ctx.Dereference(e)
			if err != nil {
				return nil, err
			}
			if sd, ok := eo.(types.StreamDict); ok {
				streams = append(streams, contentStreamOf(sd))
			}
		}
	}
	return streams, nil
}

func contentStreamOf(sd types.StreamDict) ContentStream {
	if len(sd.Raw) == 0 && len(sd.Content) > 0 {
		return ContentStream{Data: sd.Content}
	}
	filters := make([]string, 0, len(sd.FilterPipeline))
	for _, f := range sd.FilterPipeline {
		filters = append(filters, f.Name)
	}
	return ContentStream{Data: sd.Raw, Filters: filters}
}

// Overlay draws page 1 of overlay on top of page pageNr, lower-left corners
// aligned and unscaled. The overlay becomes a Form XObject painted by a
// content stream appended to the page, so it is part of the page content
// rather than an optional watermark layer.
func (d *Document) Overlay(pageNr int, overlay []byte) error {
	src, err := read(overlay)
	if err != nil {
		return fmt.Errorf("overlay: %w", err)
	}
	form, err := d.importForm(src)
	if err != nil {
		return fmt.Errorf("overlay: %w", err)
	}
	if form == nil {
		return nil
	}

	pageDict, _, inh, err := d.ctx.PageDict(pageNr, false)
	if err != nil {
		return fmt.Errorf("overlay page %d: %w", pageNr, err)
	}
	name, err := d.addXObject(pageDict, inh.Resources, *form)
	if err != nil {
		return fmt.Errorf("overlay page %d: %w", pageNr, err)
	}
	if err := d.wrapContents(pageDict, name); err != nil {
		return fmt.Errorf("overlay page %d: %w", pageNr, err)
	}

	var out bytes.Buffer
	if err := api.WriteContext(d.ctx, &out); err != nil {
		return fmt.Errorf("overlay: %w", err)
	}
	return d.reload(out.Bytes())
}

// importForm copies page 1 of src into the document as a Form XObject.
// It returns nil when the page has no content.
func (d *Document) importForm(src *model.Context) (*types.IndirectRef, error) {
	pageDict, _, inh, err := src.PageDict(1, false)
	if err != nil {
		return nil, err
	}
	content, err := src.PageContent(pageDict, 1)
	if errors.Is(err, model.ErrNoContent) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if inh.MediaBox == nil {
		return nil, errors.New("overlay page has no media box")
	}

	resources := types.Dict{}
	if inh.Resources != nil {
		o, err := migrate(inh.Resources.Clone(), src, d.ctx, map[int]int{})
		if err != nil {
			return nil, err
		}
		resources = o.(types.Dict)
	}

	sd, err := d.ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	sd.InsertName("Type", "XObject")
	sd.InsertName("Subtype", "Form")
	sd.Insert("BBox", inh.MediaBox.Array())
	sd.Insert("Resources", resources)
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return d.ctx.IndRefForNewObject(*sd)
}

// migrate copies o and every object it references from src into the
// document, renumbering indirect references. seen maps source object
// numbers to their copies.
func migrate(o types.Object, src *model.Context, dst *model.Context, seen map[int]int) (types.Object, error) {
	var err error
	switch o := o.(type) {
	case types.IndirectRef:
		objNr := o.ObjectNumber.Value()
		if nr, ok := seen[objNr]; ok {
			return *types.NewIndirectRef(nr, 0), nil
		}
		target, err := src.Dereference(o)
		if err != nil {
			return nil, err
		}
		if target != nil {
			target = target.Clone()
		}
		nr, err := dst.InsertObject(target)
		if err != nil {
			return nil, err
		}
		seen[objNr] = nr
		if _, err := migrate(target, src, dst, seen); err != nil {
			return nil, err
		}
		return *types.NewIndirectRef(nr, 0), nil

	case types.Dict:
		for k, v := range o {
			if o[k], err = migrate(v, src, dst, seen); err != nil {
				return nil, err
			}
		}
		return o, nil

	case types.StreamDict:
		for k, v := range o.Dict {
			if o.Dict[k], err = migrate(v, src, dst, seen); err != nil {
				return nil, err
			}
		}
		return o, nil

	case types.Array:
		for i, v := range o {
			if o[i], err = migrate(v, src, dst, seen); err != nil {
				return nil, err
			}
		}
		return o, nil
	}
	return o, nil
}

// addXObject registers form under a free name in a page-local copy of the
// resources in effect for pageDict. Shared resource dicts stay untouched.
func (d *Document) addXObject(pageDict, inherited types.Dict, form types.IndirectRef) (string, error) {
	resources := types.Dict{}
	if inherited != nil {
		resources = inherited.Clone().(types.Dict)
	}
	xobjects := types.Dict{}
	if o, found := resources.Find("XObject"); found && o != nil {
		existing, err := d.ctx.DereferenceDict(o)
		if err != nil {
			return "", err
		}
		if existing != nil {
			xobjects = existing.Clone().(types.Dict)
		}
	}

	var name string
	for i := 0; ; i++ {
		name = "Stamp" + strconv.Itoa(i)
		if _, taken := xobjects.Find(name); !taken {
			break
		}
	}
	xobjects[name] = form
	resources["XObject"] = xobjects
	pageDict["Resources"] = resources
	return name, nil
}

// wrapContents brackets the existing page content in q/Q and appends a
// stream painting the named XObject in default user space.
func (d *Document) wrapContents(pageDict types.Dict, name string) error {
	var streams types.Array
	if o, found := pageDict.Find("Contents"); found && o != nil {
		ref, isRef := o.(types.IndirectRef)
		o, err := d.ctx.Dereference(o)
		if err != nil {
			return err
		}
		switch obj := o.(type) {
		case types.StreamDict:
			if !isRef {
				r, err := d.ctx.IndRefForNewObject(obj)
				if err != nil {
					return err
				}
				ref = *r
			}
			streams = append(streams, ref)
		case types.Array:
			streams = append(streams, obj...)
		}
	}

	head, err := d.newContentStream([]byte("q\n"))
	if err != nil {
		return err
	}
	tail, err := d.newContentStream([]byte("\nQ\nq /" + name + " Do Q\n"))
	if err != nil {
		return err
	}
	contents := append(types.Array{*head}, streams...)
	pageDict["Contents"] = append(contents, *tail)
	return nil
}

func (d *Document) newContentStream(content []byte) (*types.IndirectRef, error) {
	sd, err := d.ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return d.ctx.IndRefForNewObject(*sd)
}

// AppendPages appends all pages of other after the last page.
func (d *Document) AppendPages(other []byte) error {
	var out bytes.Buffer
	rsc := []io.ReadSeeker{bytes.NewReader(d.data), bytes.NewReader(other)}
	if err := api.MergeRaw(rsc, &out, false, newConfiguration()); err != nil {
		return fmt.Errorf("append pages: %w", err)
	}
	return d.reload(out.Bytes())
}

func (d *Document) reload(data []byte) error {
	ctx, err := read(data)
	if err != nil {
		return err
	}
	d.ctx = ctx
	d.data = data
	return nil
}

// Bytes serializes the current document. It is meant to be called once,
// after the last mutation.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := api.WriteContext(d.ctx, &buf); err != nil {
		return nil, fmt.Errorf("pdfcpu write: %w", err)
	}
	return buf.Bytes(), nil
}
