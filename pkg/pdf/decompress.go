package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/hhrutter/lzw"
	"github.com/klauspost/compress/zlib"
	"github.com/pdfcpu/pdfcpu/pkg/filter"
)

// MaxDecodedSize bounds the decoded content of one page.
const MaxDecodedSize = 64 << 20

// ErrDecode marks a content stream that could not be decoded.
var ErrDecode = errors.New("pdf: stream decode failed")

// Decompress decodes data through the declared filter pipeline. Filters are
// applied in order; an unrecognized filter passes the bytes through. No
// stage may produce more than limit bytes, and neither may the input when
// no filter applies.
func Decompress(data []byte, limit int, filters ...string) ([]byte, error) {
	if limit < 0 {
		limit = 0
	}
	out := data
	for _, name := range filters {
		var err error
		switch name {
		case "FlateDecode", "Fl":
			out, err = inflate(out, limit)
		case filter.LZW, "LZW":
			out, err = unLZW(out, limit)
		case filter.ASCII85, filter.ASCIIHex, filter.RunLength, "A85", "AHx", "RL":
			out, err = decodeWithPDFCPU(canonicalFilter(name), out, limit)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
		}
	}
	if len(out) > limit {
		return nil, fmt.Errorf("%w: content exceeds %d bytes", ErrDecode, limit)
	}
	return out, nil
}

func inflate(data []byte, limit int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return readBounded(zr, limit)
}

// unLZW decodes with EarlyChange 1, the default for content streams.
func unLZW(data []byte, limit int) ([]byte, error) {
	rc := lzw.NewReader(bytes.NewReader(data), true)
	defer rc.Close()
	return readBounded(rc, limit)
}

// decodeWithPDFCPU runs one of the pdfcpu filters. Only RunLength can
// expand its input, so it alone is decoded with a length cap. The filters
// index their input unchecked and panic on truncated data.
func decodeWithPDFCPU(name string, data []byte, limit int) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("malformed %s data: %v", name, r)
		}
	}()

	f, err := filter.NewFilter(name, nil)
	if err != nil {
		return nil, err
	}
	var r io.Reader
	if name == filter.RunLength {
		r, err = f.DecodeLength(bytes.NewReader(data), int64(limit)+1)
	} else {
		r, err = f.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, err
	}
	return readBounded(r, limit)
}

func readBounded(r io.Reader, limit int) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(b) > limit {
		return nil, fmt.Errorf("decoded stream exceeds %d bytes", limit)
	}
	return b, nil
}

// canonicalFilter maps inline-image abbreviations to full filter names.
func canonicalFilter(name string) string {
	switch name {
	case "A85":
		return filter.ASCII85
	case "AHx":
		return filter.ASCIIHex
	case "RL":
		return filter.RunLength
	}
	return name
}
