package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/a3tai/bizdocs/internal/document"
	"github.com/a3tai/bizdocs/internal/layout"
	"github.com/a3tai/bizdocs/internal/money"
)

const (
	fontFamily   = "Helvetica"
	pdfSubject   = "Business Document"
	pdfCreator   = "Business Documents Generator"
	thankYouLine = "Thank you for your business!"
	minCellFont  = 6.0
)

// PDFRenderer draws documents on A4 pages with fpdf core fonts.
// It is safe for concurrent use; every Render builds its own fpdf instance.
type PDFRenderer struct {
	options
	geom layout.Geometry
}

// NewPDFRenderer creates a renderer for the A4 document layout
func NewPDFRenderer(opts ...Option) *PDFRenderer {
	return &PDFRenderer{
		options: newOptions(opts),
		geom:    layout.A4(),
	}
}

// Format reports FormatPDF
func (r *PDFRenderer) Format() Format {
	return FormatPDF
}

// Render draws doc and returns the PDF bytes
func (r *PDFRenderer) Render(ctx context.Context, doc *document.Document) (*Result, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(r.geom.Margin, r.geom.Margin, r.geom.Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(r.compress)
	pdf.SetTitle(doc.Title()+" "+doc.Number, true)
	pdf.SetSubject(pdfSubject, true)
	pdf.SetAuthor(doc.Business.Name, true)
	pdf.SetCreator(pdfCreator, true)
	pdf.SetKeywords(string(doc.Type), true)
	pdf.SetCreationDate(r.now())

	c := &canvas{pdf: pdf, g: r.geom, currency: doc.Currency}
	logo := r.registerImage(ctx, pdf, "logo", doc.Business.LogoURL)
	signature := r.registerImage(ctx, pdf, "signature", doc.Business.SignatureURL)

	rows := c.itemRows(doc.Items, r.descMode)
	heights := make([]float64, len(rows))
	for i, row := range rows {
		heights[i] = row.height
	}
	plan := layout.Paginate(heights, r.geom)

	for i, page := range plan.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pdf.AddPage()
		if i == 0 {
			c.header(doc, logo)
			c.documentInfo(doc)
			c.client(doc)
		}
		if page.HasTable() {
			c.table(page, rows)
		}
		last := i == plan.PageCount()-1
		if i == plan.TotalsPage {
			c.totals(doc.Totals, plan.TotalsY)
		}
		c.footer(i+1, plan.PageCount(), last, signature)
	}

	if err := pdf.Error(); err != nil {
		return nil, &RenderError{Engine: "fpdf", Op: "draw", Err: err}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Engine: "fpdf", Op: "output", Err: err}
	}

	r.logger.Debug("rendered PDF",
		zap.String("type", string(doc.Type)),
		zap.String("number", doc.Number),
		zap.Int("pages", plan.PageCount()),
		zap.Int("bytes", buf.Len()))

	return NewResult(buf.Bytes(), FormatPDF), nil
}

// registerImage loads ref into the PDF under name. Failures are logged and
// the image is skipped.
func (r *PDFRenderer) registerImage(ctx context.Context, pdf *fpdf.Fpdf, name, ref string) *Image {
	if strings.TrimSpace(ref) == "" {
		return nil
	}

	img, err := r.images.Load(ctx, ref)
	if err != nil {
		r.logger.Warn("could not load image", zap.String("image", name), zap.Error(err))
		return nil
	}

	opts := fpdf.ImageOptions{ImageType: img.Type, ReadDpi: false}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if !pdf.Ok() {
		r.logger.Warn("could not embed image", zap.String("image", name), zap.Error(pdf.Error()))
		pdf.ClearError()
		return nil
	}
	return img
}

// itemRow holds the prepared text of one table row
type itemRow struct {
	desc   []string
	cells  []string // qty, price, discount, total
	height float64
}

// canvas draws the document sections on the current fpdf page
type canvas struct {
	pdf      *fpdf.Fpdf
	g        layout.Geometry
	currency string
}

func (c *canvas) font(style string, size float64) {
	c.pdf.SetFont(fontFamily, style, size)
}

func (c *canvas) gray(level int) {
	c.pdf.SetTextColor(level, level, level)
}

func (c *canvas) width(s string) float64 {
	return c.pdf.GetStringWidth(encodeText(s))
}

func (c *canvas) text(x, y float64, s string) {
	c.pdf.Text(x, y, encodeText(s))
}

func (c *canvas) textRight(right, y float64, s string) {
	c.text(right-c.width(s), y, s)
}

func (c *canvas) textCenter(cx, y float64, s string) {
	c.text(cx-c.width(s)/2, y, s)
}

func (c *canvas) amount(v float64) string {
	return money.FormatFor(v, c.currency, encodable)
}

// detailLines expands optional fields into printable lines, wrapping each
// one to width
func (c *canvas) detailLines(width float64, fields ...string) []string {
	var lines []string
	for _, f := range fields {
		lines = append(lines, layout.Wrap(f, width, c.width)...)
	}
	return lines
}

func labelled(label, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return label + value
}

func (c *canvas) header(doc *document.Document, logo *Image) {
	g := c.g
	textWidth := g.HeaderTextWidth(logo != nil)

	c.font("B", 18)
	c.gray(0)
	c.text(g.Margin, g.Margin+8, layout.FitText(doc.Business.Name, textWidth, c.width))

	c.font("", 10)
	c.gray(64)
	y := g.Margin + 18
	lines := c.detailLines(textWidth,
		doc.Business.Address,
		labelled("Phone: ", doc.Business.Phone),
		labelled("Email: ", doc.Business.Email),
	)
	for _, line := range layout.ClipLines(lines, g.LinesBetween(y, g.HeaderRuleY-2)) {
		c.text(g.Margin, y, line)
		y += g.LineLeading
	}

	if logo != nil {
		w, h := layout.FitBox(float64(logo.Width), float64(logo.Height), g.LogoW, g.LogoH)
		c.pdf.ImageOptions("logo", g.LogoX+g.LogoW-w, g.LogoY, w, h, false,
			fpdf.ImageOptions{ImageType: logo.Type}, 0, "")
	}

	c.pdf.SetDrawColor(128, 128, 128)
	c.pdf.SetLineWidth(0.5)
	c.pdf.Line(g.Margin, g.HeaderRuleY, g.RightEdge(), g.HeaderRuleY)
}

func (c *canvas) documentInfo(doc *document.Document) {
	g := c.g

	c.font("B", 16)
	c.gray(0)
	c.text(g.Margin, g.TitleY, doc.Title())

	c.font("", 10)
	y := g.InfoY
	info := []string{"Number: " + doc.Number, "Date: " + doc.Date}
	if doc.ShowsDueDate() {
		info = append(info, "Due Date: "+doc.DueDate)
	}
	for _, line := range info {
		c.text(g.Margin, y, layout.FitText(line, g.ContentWidth(), c.width))
		y += g.LineLeading
	}
}

func (c *canvas) client(doc *document.Document) {
	g := c.g

	c.font("B", 12)
	c.gray(0)
	c.text(g.Margin, g.ClientY, "BILL TO:")

	y := g.ClientY + 8
	room := g.LinesBetween(y, g.TableTop-3)

	c.font("", 10)
	c.gray(64)
	if name := strings.TrimSpace(doc.Client.Name); name != "" && room > 0 {
		c.font("B", 10)
		c.text(g.Margin, y, layout.FitText(name, g.ContentWidth(), c.width))
		c.font("", 10)
		y += g.LineLeading
		room--
	}

	lines := c.detailLines(g.ContentWidth(),
		doc.Client.Address,
		labelled("Phone: ", doc.Client.Phone),
		labelled("Email: ", doc.Client.Email),
	)
	for _, line := range layout.ClipLines(lines, room) {
		c.text(g.Margin, y, line)
		y += g.LineLeading
	}
}

// itemRows prepares cell text and row heights. The body font must be the
// one used for measuring, so it is set here.
func (c *canvas) itemRows(items []document.Item, mode DescriptionMode) []itemRow {
	cols := layout.ItemColumns()
	descWidth := cols[0].Width - 2*c.g.CellPadding

	c.font("", 10)
	rows := make([]itemRow, len(items))
	for i, it := range items {
		row := itemRow{
			cells: []string{
				formatNumber(it.Quantity),
				c.amount(it.Price),
				formatNumber(it.Discount) + "%",
				c.amount(it.Total),
			},
			height: c.g.RowHeight,
		}
		switch mode {
		case DescriptionWrap:
			row.desc = layout.Wrap(it.Description, descWidth, c.width)
			row.height = layout.WrappedRowHeight(len(row.desc), c.g)
		default:
			desc := layout.Truncate(it.Description, c.g.DescriptionLimit)
			row.desc = []string{layout.FitText(desc, descWidth, c.width)}
		}
		rows[i] = row
	}
	return rows
}

func (c *canvas) table(page layout.PagePlan, rows []itemRow) {
	g := c.g
	cols := layout.ItemColumns()
	offsets := layout.Offsets(g.Margin, cols)
	tableWidth := layout.TableWidth(cols)

	c.pdf.SetFillColor(248, 248, 248)
	c.pdf.SetDrawColor(128, 128, 128)
	c.pdf.SetLineWidth(0.3)
	c.pdf.Rect(g.Margin, page.TableTop, tableWidth, g.HeaderBand, "FD")

	c.font("B", 10)
	c.gray(0)
	for i, col := range cols {
		x := layout.AlignX(col.HeaderAlign, offsets[i], col.Width, c.width(col.Header), g.CellPadding)
		c.text(x, page.TableTop+g.TextBaseline, col.Header)
	}

	c.font("", 10)
	c.gray(64)
	for _, slot := range page.Rows {
		row := rows[slot.Index]
		if slot.Index%2 == 1 {
			c.pdf.SetFillColor(248, 248, 248)
			c.pdf.Rect(g.Margin, slot.Top, tableWidth, slot.Height, "F")
		}
		c.pdf.SetDrawColor(192, 192, 192)
		c.pdf.SetLineWidth(0.1)
		c.pdf.Rect(g.Margin, slot.Top, tableWidth, slot.Height, "D")

		baseline := slot.Top + g.TextBaseline
		for k, line := range row.desc {
			c.text(offsets[0]+g.CellPadding, baseline+float64(k)*g.WrapLeading, line)
		}
		for k, cell := range row.cells {
			col := cols[k+1]
			c.cell(col, offsets[k+1], baseline, cell)
		}
	}

	c.pdf.SetDrawColor(128, 128, 128)
	c.pdf.SetLineWidth(0.5)
	c.pdf.Line(g.Margin, page.TableBottom, g.Margin+tableWidth, page.TableBottom)
}

// cell draws s aligned in col, shrinking the font when it would overflow
func (c *canvas) cell(col layout.Column, x, baseline float64, s string) {
	room := col.Width - 2*c.g.CellPadding
	size := 10.0
	for c.width(s) > room && size > minCellFont {
		size -= 0.5
		c.pdf.SetFontSize(size)
	}
	c.text(layout.AlignX(col.Align, x, col.Width, c.width(s), c.g.CellPadding), baseline, s)
	if size != 10 {
		c.pdf.SetFontSize(10)
	}
}

func (c *canvas) totals(t document.Totals, y float64) {
	g := c.g
	x := g.TotalsX
	right := g.RightEdge()

	c.font("", 10)
	c.gray(64)
	c.text(x, y, "Subtotal:")
	c.textRight(right, y, c.amount(t.Subtotal))

	c.text(x, y+7, "Tax ("+formatNumber(t.TaxRate)+"%):")
	c.textRight(right, y+7, c.amount(t.TaxAmount))

	c.pdf.SetDrawColor(128, 128, 128)
	c.pdf.SetLineWidth(0.5)
	c.pdf.Line(x, y+15, right, y+15)

	c.font("B", 12)
	c.gray(0)
	c.text(x, y+22, "TOTAL:")
	c.textRight(right, y+22, c.amount(t.GrandTotal))
}

func (c *canvas) footer(pageNo, pages int, last bool, signature *Image) {
	g := c.g
	y := g.FooterRuleY

	c.pdf.SetDrawColor(192, 192, 192)
	c.pdf.SetLineWidth(0.3)
	c.pdf.Line(g.Margin, y, g.RightEdge(), y)

	if last && signature != nil {
		w, h := layout.FitBox(float64(signature.Width), float64(signature.Height), g.SignatureW, g.SignatureH)
		c.pdf.ImageOptions("signature", g.Margin, y+5, w, h, false,
			fpdf.ImageOptions{ImageType: signature.Type}, 0, "")
		c.font("", 8)
		c.gray(128)
		c.text(g.Margin, y+30, "Authorized Signature")
	}

	if last {
		c.font("I", 10)
		c.gray(64)
		c.textCenter(g.CenterX(), y+15, thankYouLine)
	}

	c.font("", 8)
	c.gray(128)
	c.textRight(g.RightEdge(), g.PageNumberY, fmt.Sprintf("Page %d of %d", pageNo, pages))
}

// formatNumber prints a quantity or percentage without trailing zeros
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
