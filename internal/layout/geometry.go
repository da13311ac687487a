// Package layout holds the page geometry and the table arithmetic used to
// place a business document on A4 paper.
//
// All measurements are millimetres from the top-left corner of the page.
// Nothing in this package draws; renderers ask it where things go and how
// text has to be cut or wrapped to fit, so the same plan can be checked in
// tests without producing a PDF.
package layout

import "math"

// Geometry describes the fixed anchors of the document page
type Geometry struct {
	PageWidth  float64
	PageHeight float64
	Margin     float64

	HeaderRuleY  float64 // rule under the business header
	TitleY       float64 // document title baseline
	InfoY        float64 // first document info line
	ClientY      float64 // "BILL TO:" baseline
	TableTop     float64 // top of the items table on the first page
	LineLeading  float64 // distance between detail lines
	HeaderBand   float64 // height of the table header band
	RowHeight    float64 // minimum height of an item row
	RowGap       float64 // gap between header band and first row
	CellPadding  float64
	TextBaseline float64 // baseline offset from a row's top edge
	WrapLeading  float64 // line distance inside a wrapped row

	TotalsX      float64
	TotalsOffset float64 // first totals baseline below the table's bottom edge
	TotalsHeight float64 // space the totals block needs below its first baseline

	FooterRuleY float64
	PageNumberY float64
	BodyBottom  float64 // rows and totals must end above this line

	LogoX, LogoY, LogoW, LogoH float64
	SignatureW, SignatureH     float64

	DescriptionLimit int // runes kept when truncating descriptions
}

// A4 returns the portrait A4 geometry used by every document type
func A4() Geometry {
	return Geometry{
		PageWidth:  210,
		PageHeight: 297,
		Margin:     20,

		HeaderRuleY:  65,
		TitleY:       75,
		InfoY:        90,
		ClientY:      115,
		TableTop:     160,
		LineLeading:  5,
		HeaderBand:   8,
		RowHeight:    10,
		RowGap:       1,
		CellPadding:  2,
		TextBaseline: 5,
		WrapLeading:  4.5,

		TotalsX:      130,
		TotalsOffset: 21,
		TotalsHeight: 24,

		FooterRuleY: 260,
		PageNumberY: 287,
		BodyBottom:  255,

		LogoX: 150, LogoY: 20, LogoW: 40, LogoH: 30,
		SignatureW: 50, SignatureH: 20,

		DescriptionLimit: 35,
	}
}

// ContentWidth is the printable width between the margins
func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - 2*g.Margin
}

// RightEdge is the x coordinate of the right margin
func (g Geometry) RightEdge() float64 {
	return g.PageWidth - g.Margin
}

// CenterX is the horizontal centre of the page
func (g Geometry) CenterX() float64 {
	return g.PageWidth / 2
}

// RowsStart returns the top edge of the first row under a header band at top
func (g Geometry) RowsStart(tableTop float64) float64 {
	return tableTop + g.HeaderBand + g.RowGap
}

// HeaderTextWidth is the room left for business details beside the logo
func (g Geometry) HeaderTextWidth(hasLogo bool) float64 {
	if hasLogo {
		return g.LogoX - g.Margin - 5
	}
	return g.ContentWidth()
}

// LinesBetween reports how many detail lines fit from y (inclusive) to limit
func (g Geometry) LinesBetween(y, limit float64) int {
	if y > limit || g.LineLeading <= 0 {
		return 0
	}
	return int((limit-y)/g.LineLeading) + 1
}

// FitBox scales a w x h image to fit inside maxW x maxH keeping its aspect
// ratio. Unknown image sizes fill the box.
func FitBox(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := math.Min(maxW/w, maxH/h)
	return w * scale, h * scale
}
