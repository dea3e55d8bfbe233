package stamping

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract961/signing-backend/pkg/pdf"
)

type drawnText struct {
	s     string
	x, y  float64
	size  float64
	style string
}

type drawnImage struct {
	name string
	x, y float64
	size float64
}

type recordingSurface struct {
	width  float64
	lines  []float64
	images []drawnImage
	texts  []drawnText
}

func (s *recordingSurface) Width() float64 { return s.width }

func (s *recordingSurface) Line(x1, y1, x2, y2, thickness float64, col pdf.Color) {
	s.lines = append(s.lines, y1)
}

func (s *recordingSurface) Image(name string, png []byte, x, y, w, h float64) error {
	s.images = append(s.images, drawnImage{name: name, x: x, y: y, size: w})
	return nil
}

func (s *recordingSurface) Text(str string, x, y, size float64, family, style string, col pdf.Color) {
	s.texts = append(s.texts, drawnText{s: str, x: x, y: y, size: size, style: style})
}

func (s *recordingSurface) count(str string) int {
	n := 0
	for _, t := range s.texts {
		if t.s == str {
			n++
		}
	}
	return n
}

func (s *recordingSurface) find(prefix string) (drawnText, bool) {
	for _, t := range s.texts {
		if strings.HasPrefix(t.s, prefix) {
			return t, true
		}
	}
	return drawnText{}, false
}

type fakeQR struct {
	contents []string
	err      error
}

func (q *fakeQR) PNG(content string) ([]byte, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.contents = append(q.contents, content)
	return []byte("png:" + content), nil
}

func testIssuer() Issuer {
	return Issuer{Name: `ТОО "961"`, BIN: "211040031441", Phone: "+7 707 798 3316", Platform: "961.kz"}
}

func testRequest() Request {
	return Request{
		DisplayID:         "REQ-2026-001",
		VerificationToken: "tok123",
		SignerName:        "Иван Петров",
		SignerContact:     "+77070001234",
		SignedAt:          time.Date(2026, 2, 6, 8, 30, 0, 0, time.UTC),
	}
}

func TestComposeLayout(t *testing.T) {
	almaty := time.FixedZone("ALMT", 6*3600)
	qr := &fakeQR{}
	c := NewComposer(qr, "https://961.kz/", testIssuer(), DefaultLabels(), DefaultLayout(), almaty)
	s := &recordingSurface{width: 595}

	require.NoError(t, c.Compose(s, 792, testRequest()))

	assert.Equal(t, []string{"https://961.kz/verify/tok123", "211040031441", "+77070001234"}, qr.contents)
	assert.Equal(t, []float64{792, 652, 552}, s.lines)

	require.Len(t, s.images, 3)
	assert.Equal(t, drawnImage{name: "qr-verify", x: 50, y: 697, size: 80}, s.images[0])
	assert.Equal(t, drawnImage{name: "qr-issuer", x: 50, y: 577, size: 60}, s.images[1])
	assert.Equal(t, 60.0, s.images[2].size)
	assert.Equal(t, 312.5, s.images[2].x)

	footer, ok := s.find("ID: ")
	require.True(t, ok)
	assert.Equal(t, "ID: REQ-2026-001  |  Платформа: 961.kz  |  Подписано электронно с SMS-подтверждением", footer.s)
	assert.Equal(t, 540.0, footer.y)
	assert.GreaterOrEqual(t, footer.y, 792-DefaultLayout().BlockHeight-DefaultLayout().BottomMargin)

	phone, ok := s.find("+7 707 000")
	require.True(t, ok)
	assert.Equal(t, "+7 707 000 1234", phone.s)

	date, ok := s.find("Дата подписи: ")
	require.True(t, ok)
	assert.Equal(t, "Дата подписи: 06.02.2026 14:30", date.s)

	status, ok := s.find("Подписан")
	require.True(t, ok)
	assert.Equal(t, "B", status.style)
}

func TestComposeSenderFallback(t *testing.T) {
	c := NewComposer(&fakeQR{}, "https://961.kz", testIssuer(), DefaultLabels(), DefaultLayout(), nil)

	s := &recordingSurface{width: 612}
	require.NoError(t, c.Compose(s, 700, testRequest()))
	assert.Equal(t, 2, s.count(`ТОО "961"`))

	req := testRequest()
	req.OrganizationName = "ИП Ромашка"
	s = &recordingSurface{width: 612}
	require.NoError(t, c.Compose(s, 700, req))
	assert.Equal(t, 1, s.count(`ТОО "961"`))
	assert.Equal(t, 1, s.count("ИП Ромашка"))
}

func TestComposeNormalizesText(t *testing.T) {
	c := NewComposer(&fakeQR{}, "https://961.kz", testIssuer(), DefaultLabels(), DefaultLayout(), nil)
	s := &recordingSurface{width: 595}

	req := testRequest()
	req.SignerName = "Андреи\u0306 Noe\u0308l"
	require.NoError(t, c.Compose(s, 792, req))

	name, ok := s.find("Андр")
	require.True(t, ok)
	assert.Equal(t, "Андрей Noël", name.s)
}

func TestComposeQRFailure(t *testing.T) {
	c := NewComposer(&fakeQR{err: errors.New("too long")}, "https://961.kz", testIssuer(), DefaultLabels(), DefaultLayout(), nil)

	err := c.Compose(&recordingSurface{width: 595}, 792, testRequest())
	assert.ErrorIs(t, err, ErrAssetLoad)
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "+7 707 000 1234", FormatPhone("+77070001234"))
	assert.Equal(t, "+7 707 000 1234", FormatPhone("7 (707) 000-12-34"))
	assert.Equal(t, "12345", FormatPhone("12345"))
}

func TestVerifyURL(t *testing.T) {
	for _, base := range []string{"https://961.kz", "https://961.kz/"} {
		c := NewComposer(&fakeQR{}, base, testIssuer(), DefaultLabels(), DefaultLayout(), nil)
		assert.Equal(t, "https://961.kz/verify/abc", c.VerifyURL("abc"))
	}
}
