package stamping

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"contract961/signing-backend/pkg/pdf"
)

// FontFamily is the family name the stamp fonts are registered under.
const FontFamily = "stamp"

var (
	textColor   = pdf.Color{R: 0.2, G: 0.2, B: 0.2}
	mutedColor  = pdf.Color{R: 0.5, G: 0.5, B: 0.5}
	borderColor = pdf.Color{R: 0.85, G: 0.85, B: 0.85}
	signedColor = pdf.Color{R: 0.1, G: 0.6, B: 0.3}
)

// Surface is a drawing target in PDF user space (origin bottom-left).
type Surface interface {
	Width() float64
	Line(x1, y1, x2, y2, thickness float64, col pdf.Color)
	Image(name string, png []byte, x, y, w, h float64) error
	Text(s string, x, y, size float64, family, style string, col pdf.Color)
}

// QREncoder renders content as a PNG QR code.
type QREncoder interface {
	PNG(content string) ([]byte, error)
}

// GlyphChecker reports text the font of a role cannot draw.
type GlyphChecker interface {
	Covers(role FontRole, s string) error
}

// Composer draws the signature block.
type Composer struct {
	qr        QREncoder
	publicURL string
	issuer    Issuer
	labels    Labels
	layout    Layout
	loc       *time.Location
	glyphs    GlyphChecker
}

func NewComposer(qr QREncoder, publicURL string, issuer Issuer, labels Labels, layout Layout, loc *time.Location) *Composer {
	if loc == nil {
		loc = time.UTC
	}
	return &Composer{
		qr:        qr,
		publicURL: strings.TrimRight(publicURL, "/"),
		issuer:    issuer,
		labels:    labels,
		layout:    layout,
		loc:       loc,
	}
}

// VerifyURL is the public verification link encoded in the main QR code.
func (c *Composer) VerifyURL(token string) string {
	return c.publicURL + "/verify/" + token
}

// CheckGlyphs makes Compose fail with ErrAssetLoad on text the fonts cannot
// draw.
func (c *Composer) CheckGlyphs(g GlyphChecker) {
	c.glyphs = g
}

// Compose draws the block top-down starting at startY.
func (c *Composer) Compose(s Surface, startY float64, req Request) error {
	d := &drawing{Composer: c, s: s}
	marginX := c.layout.MarginX
	right := s.Width() - marginX
	contentWidth := s.Width() - marginX*2
	signedAt := formatDate(req.SignedAt, c.loc)
	sender := req.OrganizationName
	if sender == "" {
		sender = c.issuer.Name
	}

	y := startY
	s.Line(marginX, y, right, y, 1, borderColor)
	y -= 15

	const mainQR = 80
	if err := c.drawQR(s, "qr-verify", c.VerifyURL(req.VerificationToken), marginX, y-mainQR, mainQR); err != nil {
		return err
	}
	textX := marginX + mainQR + 15
	textY := y - 12
	d.text(c.labels.Intro[0], textX, textY, 9, RoleRegular, textColor)
	textY -= 14
	d.text(c.labels.Intro[1], textX, textY, 9, RoleRegular, textColor)
	textY -= 14
	d.text(c.labels.Intro[2], textX, textY, 9, RoleRegular, mutedColor)
	textY -= 20

	d.text(c.labels.Sender, textX, textY, 8, RoleRegular, mutedColor)
	d.text(sender, textX+70, textY, 8, RoleRegular, textColor)
	textY -= 12
	d.text(c.labels.Recipient, textX, textY, 8, RoleRegular, mutedColor)
	d.text(req.SignerName, textX+70, textY, 8, RoleRegular, textColor)
	textY -= 12
	d.text(c.labels.Status, textX, textY, 8, RoleRegular, mutedColor)
	d.text(c.labels.StatusSigned, textX+70, textY, 8, RoleBold, signedColor)

	y -= mainQR + 45
	s.Line(marginX, y, right, y, 0.5, borderColor)
	y -= 15

	const colQR = 60
	columnWidth := (contentWidth - 30) / 2

	leftX := marginX
	if err := c.drawQR(s, "qr-issuer", c.issuer.BIN, leftX, y-colQR, colQR); err != nil {
		return err
	}
	lx, ly := leftX+colQR+10, y-12
	d.text(c.issuer.Name, lx, ly, 10, RoleBold, textColor)
	ly -= 14
	d.text(c.labels.IssuerIDPrefix+c.issuer.BIN, lx, ly, 9, RoleRegular, textColor)
	ly -= 12
	d.text(c.issuer.Phone, lx, ly, 9, RoleRegular, textColor)
	ly -= 12
	d.text(c.labels.SignedAtPrefix+signedAt, lx, ly, 8, RoleRegular, mutedColor)

	rightX := marginX + columnWidth + 30
	if err := c.drawQR(s, "qr-signer", req.SignerContact, rightX, y-colQR, colQR); err != nil {
		return err
	}
	rx, ry := rightX+colQR+10, y-12
	d.text(req.SignerName, rx, ry, 10, RoleBold, textColor)
	ry -= 14
	d.text(FormatPhone(req.SignerContact), rx, ry, 9, RoleRegular, textColor)
	ry -= 12
	d.text(c.labels.SignedAtPrefix+signedAt, rx, ry, 8, RoleRegular, mutedColor)

	y -= colQR + 25
	s.Line(marginX, y, right, y, 0.5, borderColor)
	y -= 12

	footer := fmt.Sprintf("ID: %s  |  %s%s  |  %s", req.DisplayID, c.labels.PlatformPrefix, c.issuer.Platform, c.labels.Disclosure)
	d.text(footer, marginX, y, 7, RoleRegular, mutedColor)
	return d.err
}

func (c *Composer) drawQR(s Surface, name, content string, x, y, size float64) error {
	png, err := c.qr.PNG(content)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAssetLoad, name, err)
	}
	if err := s.Image(name, png, x, y, size, size); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAssetLoad, name, err)
	}
	return nil
}

// drawing carries the state of one Compose call.
type drawing struct {
	*Composer
	s   Surface
	err error
}

func (d *drawing) text(str string, x, y, size float64, role FontRole, col pdf.Color) {
	if str == "" {
		return
	}
	str = norm.NFC.String(str)
	if d.glyphs != nil && d.err == nil {
		d.err = d.glyphs.Covers(role, str)
	}
	d.s.Text(str, x, y, size, FontFamily, role.style(), col)
}

// FormatPhone renders an 11-digit number as +7 707 000 1234. Anything else
// is returned unchanged.
func FormatPhone(phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) != 11 {
		return phone
	}
	d := string(digits)
	return "+" + d[:1] + " " + d[1:4] + " " + d[4:7] + " " + d[7:]
}

func formatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01.2006 15:04")
}
