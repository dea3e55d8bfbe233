package pdf

import (
	"bytes"
	"math"
)

// TextState tracks the Y component of the text line matrix.
type TextState struct {
	InTextBlock bool
	LineMatrixY float64
	Leading     float64
}

// PathBuffer holds the Y candidates of the path under construction. They
// only become ink when a paint operator ends the path; clipping and the
// no-op terminator throw them away.
type PathBuffer struct {
	pendingYs   []float64
	clipPending bool
}

func (b *PathBuffer) Add(ys ...float64) {
	b.pendingYs = append(b.pendingYs, ys...)
}

func (b *PathBuffer) MarkClip() {
	b.clipPending = true
}

// Commit hands the pending candidates to dst and resets the buffer.
func (b *PathBuffer) Commit(dst func(float64)) {
	for _, y := range b.pendingYs {
		dst(y)
	}
	b.reset()
}

func (b *PathBuffer) Discard() {
	b.reset()
}

func (b *PathBuffer) Pending() []float64 {
	return b.pendingYs
}

func (b *PathBuffer) ClipPending() bool {
	return b.clipPending
}

func (b *PathBuffer) reset() {
	b.pendingYs = b.pendingYs[:0]
	b.clipPending = false
}

// maxOperands bounds the operand stack. No operator the analyzer reads
// takes more than six operands; older ones are dropped.
const maxOperands = 8

// Analyzer is the geometry state machine for one page. It is fed tokens
// from every content stream of the page in order.
type Analyzer struct {
	pageHeight float64
	lowestY    float64
	committed  int
	operators  int
	opaque     bool

	text     TextState
	path     PathBuffer
	operands []float64
}

func NewAnalyzer(pageHeight float64) *Analyzer {
	return &Analyzer{
		pageHeight: pageHeight,
		lowestY:    pageHeight,
		operands:   make([]float64, 0, maxOperands),
	}
}

// Push processes one token. Operands left on the stack at the end of a
// stream carry over, as streams of one page concatenate.
func (a *Analyzer) Push(t Token) {
	if t.Kind == NumberToken {
		if len(a.operands) == maxOperands {
			copy(a.operands, a.operands[1:])
			a.operands = a.operands[:maxOperands-1]
		}
		a.operands = append(a.operands, t.Value)
		return
	}
	a.operators++
	a.apply(t.Op)
	a.operands = a.operands[:0]
}

// args returns the last n operands, or nil when fewer are available.
func (a *Analyzer) args(n int) []float64 {
	if len(a.operands) < n {
		return nil
	}
	return a.operands[len(a.operands)-n:]
}

func (a *Analyzer) apply(op string) {
	switch op {
	case "BT":
		a.text.InTextBlock = true
		a.text.LineMatrixY = 0
	case "ET":
		a.text.InTextBlock = false
	case "Tm":
		if v := a.args(6); v != nil {
			a.text.LineMatrixY = v[5]
			a.commit(v[5])
		}
	case "Td", "TD":
		if v := a.args(2); v != nil {
			a.text.LineMatrixY += v[1]
			if op == "TD" {
				a.text.Leading = -v[1]
			}
			a.commit(a.text.LineMatrixY)
		}
	case "TL":
		if v := a.args(1); v != nil {
			a.text.Leading = v[0]
		}
	case "T*":
		a.text.LineMatrixY -= a.text.Leading
	case "'", "\"":
		a.text.LineMatrixY -= a.text.Leading
		a.showText()
	case "Tj", "TJ":
		a.showText()
	case "cm":
		if v := a.args(6); v != nil {
			a.commit(v[5])
		}
	case "re":
		if v := a.args(4); v != nil {
			a.path.Add(math.Min(v[1], v[1]+v[3]))
		}
	case "m", "l":
		if v := a.args(2); v != nil {
			a.path.Add(v[1])
		}
	case "c":
		if v := a.args(6); v != nil {
			a.path.Add(v[1], v[3], v[5])
		}
	case "v", "y":
		if v := a.args(4); v != nil {
			a.path.Add(v[1], v[3])
		}
	case "f", "F", "f*", "S", "s", "B", "B*", "b", "b*":
		a.path.Commit(a.commit)
	case "W", "W*":
		a.path.MarkClip()
	case "n":
		a.path.Discard()
	case "Do", "sh", "EI":
		a.opaque = true
	}
}

func (a *Analyzer) showText() {
	if a.text.InTextBlock {
		a.commit(a.text.LineMatrixY)
	}
}

// commit records painted ink at y. Ink below the page edge counts as the
// edge itself.
func (a *Analyzer) commit(y float64) {
	if math.IsNaN(y) {
		return
	}
	if y < 0 {
		y = 0
	}
	a.committed++
	if y < a.lowestY {
		a.lowestY = y
	}
}

// LowestY reports the analysis result for everything fed so far.
func (a *Analyzer) LowestY() float64 {
	if a.committed == 0 && a.opaque {
		return 0
	}
	return a.lowestY
}

// Operators reports how many operators were processed.
func (a *Analyzer) Operators() int {
	return a.operators
}

// LowestContentY returns the lowest Y coordinate reached by painted marks
// on a page. Any failure degrades to 0, which callers read as a full page;
// report, when non-nil, receives the absorbed error. All streams of the
// page share one MaxDecodedSize budget.
func LowestContentY(streams []ContentStream, pageHeight float64, report func(error)) float64 {
	return lowestContentY(streams, pageHeight, MaxDecodedSize, report)
}

func lowestContentY(streams []ContentStream, pageHeight float64, budget int, report func(error)) float64 {
	if len(streams) == 0 {
		return pageHeight
	}
	fail := func(err error) float64 {
		if report != nil {
			report(err)
		}
		return 0
	}

	a := NewAnalyzer(pageHeight)
	blank := true
	for _, s := range streams {
		decoded, err := Decompress(s.Data, budget, s.Filters...)
		if err != nil {
			return fail(err)
		}
		budget -= len(decoded)
		if len(bytes.TrimSpace(decoded)) > 0 {
			blank = false
		}
		if err := Tokenize(decoded, a.Push); err != nil {
			return fail(err)
		}
	}
	if !blank && a.Operators() == 0 {
		return fail(errNoOperators)
	}
	return a.LowestY()
}
