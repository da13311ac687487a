package layout

// RowSlot is the placement of one item row on a page
type RowSlot struct {
	Index  int     // index into the document's items
	Top    float64 // top edge of the row box
	Height float64
}

// PagePlan is the part of the items table drawn on one page
type PagePlan struct {
	TableTop    float64 // top of the header band
	Rows        []RowSlot
	TableBottom float64 // bottom edge of the last row (or of the header gap when empty)
}

// Plan is the full pagination of an items table plus the totals block
type Plan struct {
	Pages      []PagePlan
	TotalsPage int     // index into Pages
	TotalsY    float64 // first totals baseline
}

// PageCount returns the number of pages the document needs
func (p Plan) PageCount() int {
	return len(p.Pages)
}

// RowHeights returns the uniform row height for n rows
func RowHeights(n int, g Geometry) []float64 {
	heights := make([]float64, n)
	for i := range heights {
		heights[i] = g.RowHeight
	}
	return heights
}

// WrappedRowHeight is the height of a row holding lines of wrapped text
func WrappedRowHeight(lines int, g Geometry) float64 {
	if lines <= 1 {
		return g.RowHeight
	}
	return g.RowHeight + float64(lines-1)*g.WrapLeading
}

// Paginate places rows on pages. The first page's table starts at
// g.TableTop, continuation pages repeat the header band at the top margin.
// Rows are never split across pages; a row taller than a whole page is
// placed alone on its page. The totals block follows the last row when it
// fits above g.BodyBottom, otherwise it moves to a page of its own.
func Paginate(rowHeights []float64, g Geometry) Plan {
	var plan Plan

	page := PagePlan{TableTop: g.TableTop}
	y := g.RowsStart(page.TableTop)

	for i, h := range rowHeights {
		if y+h > g.BodyBottom && len(page.Rows) > 0 {
			page.TableBottom = y
			plan.Pages = append(plan.Pages, page)
			page = PagePlan{TableTop: g.Margin}
			y = g.RowsStart(page.TableTop)
		}
		page.Rows = append(page.Rows, RowSlot{Index: i, Top: y, Height: h})
		y += h
	}
	page.TableBottom = y
	plan.Pages = append(plan.Pages, page)

	totalsY := y + g.TotalsOffset
	if totalsY+g.TotalsHeight > g.BodyBottom {
		plan.Pages = append(plan.Pages, PagePlan{})
		totalsY = g.Margin + g.TotalsOffset
	}
	plan.TotalsPage = len(plan.Pages) - 1
	plan.TotalsY = totalsY

	return plan
}

// HasTable reports whether the page draws a table header band
func (p PagePlan) HasTable() bool {
	return p.TableTop > 0
}
