package pdf

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract961/signing-backend/pkg/pdf/pdftest"
)

func lowest(t *testing.T, pageHeight float64, contents ...string) float64 {
	t.Helper()
	var streams []ContentStream
	for _, c := range contents {
		streams = append(streams, ContentStream{Data: []byte(c)})
	}
	return LowestContentY(streams, pageHeight, nil)
}

func TestLowestContentY(t *testing.T) {
	tests := []struct {
		name     string
		contents []string
		want     float64
	}{
		{"full page fill", []string{"0 0 612 792 re f"}, 0},
		{"clip path is not ink", []string{"0 0 612 792 re W n"}, 792},
		{"text position", []string{"BT 50 700 Td (Hello) Tj ET"}, 700},
		{"relative text moves", []string{"BT 50 700 Td (a) Tj 0 -20 Td (b) Tj ET"}, 680},
		{"text matrix", []string{"BT 1 0 0 1 72 400 Tm (x) Tj ET"}, 400},
		{"leading via TL and T*", []string{"BT 14 TL 72 500 Td (a) Tj T* (b) Tj T* (c) Tj ET"}, 472},
		{"TD sets leading", []string{"BT 72 500 Td 0 -12 TD (a) Tj T* (b) Tj ET"}, 476},
		{"quote operator moves down", []string{"BT 10 TL 72 300 Td (a) ' (b) ' ET"}, 280},
		{"show text outside block ignored", []string{"(stray) Tj 10 500 m 20 500 l S"}, 500},
		{"negative height rectangle", []string{"100 300 50 -40 re f"}, 260},
		{"line stroke", []string{"10 600 m 200 550 l S"}, 550},
		{"bezier control points", []string{"10 600 m 20 580 30 570 40 590 c S"}, 570},
		{"v and y curves", []string{"10 600 m 20 560 30 590 v 40 555 50 565 y S"}, 555},
		{"discarded path", []string{"10 10 m 20 10 l n BT 40 600 Td (x) Tj ET"}, 600},
		{"clip then paint", []string{"0 0 612 792 re W f"}, 0},
		{"negative candidates clamp to zero", []string{"BT 50 -100 Td (x) Tj ET 10 300 m 20 300 l S"}, 0},
		{"bleed fill", []string{"0 -10 612 802 re f"}, 0},
		{"cm translation", []string{"q 100 0 0 50 72 120 cm /Im1 Do Q"}, 120},
		{"image without translation", []string{"/Im1 Do"}, 0},
		{"shading fill", []string{"/Sh0 sh"}, 0},
		{"text state only", []string{"/F1 12 Tf 0 g"}, 792},
		{"blank stream", []string{"   \n"}, 792},
		{"operands split across streams", []string{"BT 50", " 650 Td (x) Tj ET"}, 650},
		{"lowest across streams", []string{"10 700 m 20 700 l S", "10 200 m 20 200 l S"}, 200},
		{"numbers without operators", []string{"1 2 3"}, 0},
		{"malformed stream", []string{"BT (unterminated Tj"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lowest(t, 792, tt.contents...))
		})
	}
}

func TestLowestContentYNoStreams(t *testing.T) {
	assert.Equal(t, 842.0, LowestContentY(nil, 842, nil))
}

func TestLowestContentYReportsErrors(t *testing.T) {
	var reported []error
	report := func(err error) { reported = append(reported, err) }

	y := LowestContentY([]ContentStream{{Data: []byte("garbage"), Filters: []string{"FlateDecode"}}}, 792, report)
	assert.Equal(t, 0.0, y)
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], ErrDecode)

	reported = nil
	y = LowestContentY([]ContentStream{{Data: []byte("<zz>")}}, 792, report)
	assert.Equal(t, 0.0, y)
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], ErrTokenize)
}

func TestLowestContentYCompressed(t *testing.T) {
	streams := []ContentStream{{
		Data:    pdftest.Deflate([]byte("BT /F1 12 Tf 72 144 Td (Signed) Tj ET")),
		Filters: []string{"FlateDecode"},
	}}
	assert.Equal(t, 144.0, LowestContentY(streams, 792, nil))
}

func TestPathBuffer(t *testing.T) {
	var b PathBuffer
	b.Add(10, 20)
	b.MarkClip()
	assert.Equal(t, []float64{10, 20}, b.Pending())
	assert.True(t, b.ClipPending())

	var got []float64
	b.Commit(func(y float64) { got = append(got, y) })
	assert.Equal(t, []float64{10, 20}, got)
	assert.Empty(t, b.Pending())
	assert.False(t, b.ClipPending())

	b.Add(5)
	b.Discard()
	assert.Empty(t, b.Pending())
}

func TestAnalyzerIgnoresShortOperandLists(t *testing.T) {
	a := NewAnalyzer(792)
	require.NoError(t, Tokenize([]byte("5 re f 1 2 3 cm BT 7 Td ET"), a.Push))

	assert.Equal(t, 792.0, a.LowestY())
	assert.Equal(t, 6, a.Operators())
}

func TestAnalyzerOperandStackIsBounded(t *testing.T) {
	a := NewAnalyzer(792)
	for i := 0; i < 10000; i++ {
		a.Push(Token{Kind: NumberToken, Value: -1})
	}
	assert.LessOrEqual(t, cap(a.operands), maxOperands)

	require.NoError(t, Tokenize([]byte("0 300 612 100 re f"), a.Push))
	assert.Equal(t, 300.0, a.LowestY())
}

func TestLowestContentYPageBudget(t *testing.T) {
	chunk := bytes.Repeat([]byte("0 "), 512)
	stream := ContentStream{Data: pdftest.Deflate(chunk), Filters: []string{"FlateDecode"}}

	var reported []error
	report := func(err error) { reported = append(reported, err) }

	y := lowestContentY([]ContentStream{stream, stream}, 792, 2*len(chunk), report)
	assert.Equal(t, 792.0, y)
	assert.Empty(t, reported)

	y = lowestContentY([]ContentStream{stream, stream, stream}, 792, 2*len(chunk), report)
	assert.Equal(t, 0.0, y)
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], ErrDecode)
}

func TestLowestContentYCompressedNumberFlood(t *testing.T) {
	flood := bytes.Repeat([]byte("0 "), 1<<20)
	flood = append(flood, "BT 72 144 Td (x) Tj ET"...)
	streams := []ContentStream{{Data: pdftest.Deflate(flood), Filters: []string{"FlateDecode"}}}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	y := LowestContentY(streams, 792, nil)
	runtime.ReadMemStats(&after)

	assert.Equal(t, 144.0, y)
	// the decoded 2 MiB dominates; a token per number would need over 32 MiB
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(16<<20))
}
