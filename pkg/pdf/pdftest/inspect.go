package pdftest

import (
	"bytes"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Inspection is the decoded drawing state of one page.
type Inspection struct {
	// Content is the concatenated, decoded page content.
	Content []byte
	// Forms maps each Form XObject name in the page resources to its
	// decoded content.
	Forms map[string][]byte
}

// FormNames returns the Form XObject names in sorted order.
func (in Inspection) FormNames() []string {
	names := make([]string, 0, len(in.Forms))
	for name := range in.Forms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Inspect decodes page pageNr of data.
func Inspect(data []byte, pageNr int) (*Inspection, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, err
	}

	pageDict, _, inh, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, err
	}
	in := &Inspection{Forms: map[string][]byte{}}
	if in.Content, err = ctx.PageContent(pageDict, pageNr); err != nil && err != model.ErrNoContent {
		return nil, err
	}
	if inh.Resources == nil {
		return in, nil
	}

	o, found := inh.Resources.Find("XObject")
	if !found {
		return in, nil
	}
	xobjects, err := ctx.DereferenceDict(o)
	if err != nil {
		return nil, err
	}
	for name, ref := range xobjects {
		sd, _, err := ctx.DereferenceStreamDict(ref)
		if err != nil {
			return nil, err
		}
		if sd == nil || sd.Subtype() == nil || *sd.Subtype() != "Form" {
			continue
		}
		if err := sd.Decode(); err != nil {
			return nil, err
		}
		in.Forms[name] = sd.Content
	}
	return in, nil
}

// HasOptionalContent reports whether the catalog declares optional
// content groups.
func HasOptionalContent(data []byte) (bool, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return false, err
	}
	catalog, err := ctx.Catalog()
	if err != nil {
		return false, err
	}
	_, found := catalog.Find("OCProperties")
	return found, nil
}
