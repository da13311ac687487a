package layout

// Align is the horizontal alignment of text inside a cell
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// String returns the fpdf/CSS style alignment name
func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// Column describes one column of the items table
type Column struct {
	Header      string
	Width       float64
	Align       Align // body cells
	HeaderAlign Align
}

// ItemColumns returns the items table columns: Description, Qty, Price,
// Disc% and Total at 80/20/30/20/20 mm
func ItemColumns() []Column {
	return []Column{
		{Header: "Description", Width: 80, Align: AlignLeft, HeaderAlign: AlignLeft},
		{Header: "Qty", Width: 20, Align: AlignCenter, HeaderAlign: AlignCenter},
		{Header: "Price", Width: 30, Align: AlignRight, HeaderAlign: AlignCenter},
		{Header: "Disc%", Width: 20, Align: AlignCenter, HeaderAlign: AlignCenter},
		{Header: "Total", Width: 20, Align: AlignRight, HeaderAlign: AlignCenter},
	}
}

// TableWidth sums the column widths
func TableWidth(cols []Column) float64 {
	var w float64
	for _, c := range cols {
		w += c.Width
	}
	return w
}

// FitColumns scales column widths proportionally so they fill width.
// The input is left untouched.
func FitColumns(cols []Column, width float64) []Column {
	out := make([]Column, len(cols))
	copy(out, cols)
	total := TableWidth(cols)
	if total <= 0 || width <= 0 {
		return out
	}
	scale := width / total
	var used float64
	for i := range out {
		if i == len(out)-1 {
			out[i].Width = width - used
			break
		}
		out[i].Width = out[i].Width * scale
		used += out[i].Width
	}
	return out
}

// Offsets returns the left edge of every column when the table starts at x
func Offsets(x float64, cols []Column) []float64 {
	offsets := make([]float64, len(cols))
	for i, c := range cols {
		offsets[i] = x
		x += c.Width
	}
	return offsets
}

// AlignX returns the text origin for text of width textW inside the cell
// [cellX, cellX+cellW], keeping pad millimetres from the aligned edge
func AlignX(align Align, cellX, cellW, textW, pad float64) float64 {
	switch align {
	case AlignCenter:
		return cellX + (cellW-textW)/2
	case AlignRight:
		return cellX + cellW - pad - textW
	default:
		return cellX + pad
	}
}
