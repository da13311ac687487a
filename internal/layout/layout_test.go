package layout

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monospace measures every rune as 2mm
func monospace(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * 2
}

func TestA4_Derived(t *testing.T) {
	g := A4()

	assert.Equal(t, 170.0, g.ContentWidth())
	assert.Equal(t, 190.0, g.RightEdge())
	assert.Equal(t, 105.0, g.CenterX())
	assert.Equal(t, 169.0, g.RowsStart(g.TableTop))
	assert.Equal(t, 125.0, g.HeaderTextWidth(true))
	assert.Equal(t, 170.0, g.HeaderTextWidth(false))
	assert.Equal(t, 6, g.LinesBetween(38, 63))
	assert.Equal(t, 0, g.LinesBetween(70, 63))
}

func TestItemColumns(t *testing.T) {
	cols := ItemColumns()
	require.Len(t, cols, 5)

	assert.Equal(t, 170.0, TableWidth(cols))
	assert.Equal(t, []float64{20, 100, 120, 150, 170}, Offsets(20, cols))

	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Header
	}
	assert.Equal(t, []string{"Description", "Qty", "Price", "Disc%", "Total"}, headers)
}

func TestFitColumns(t *testing.T) {
	cols := ItemColumns()
	fitted := FitColumns(cols, 85)

	assert.InDelta(t, 85.0, TableWidth(fitted), 1e-9)
	assert.InDelta(t, 40.0, fitted[0].Width, 1e-9)
	assert.Equal(t, 80.0, cols[0].Width, "input must not change")
}

func TestAlignX(t *testing.T) {
	assert.Equal(t, 22.0, AlignX(AlignLeft, 20, 80, 30, 2))
	assert.Equal(t, 105.0, AlignX(AlignCenter, 100, 20, 10, 2))
	assert.Equal(t, 138.0, AlignX(AlignRight, 120, 30, 10, 2))
	assert.Equal(t, "right", AlignRight.String())
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "Consulting", 35, "Consulting"},
		{"exact", strings.Repeat("a", 35), 35, strings.Repeat("a", 35)},
		{"long", strings.Repeat("b", 40), 35, strings.Repeat("b", 35) + "..."},
		{"multibyte", "ééééé", 3, "ééé..."},
		{"no limit", "anything", 0, "anything"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.max))
		})
	}
}

func TestFitText(t *testing.T) {
	assert.Equal(t, "short", FitText("short", 20, monospace))
	assert.Equal(t, "abcdefg...", FitText("abcdefghijklmnop", 20, monospace))
	assert.Equal(t, "...", FitText("abcdef", 1, monospace))
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width float64
		want  []string
	}{
		{"blank", "   ", 20, nil},
		{"fits", "one two", 20, []string{"one two"}},
		{"greedy", "one two three four", 20, []string{"one two", "three four"}},
		{"newline", "first\nsecond", 40, []string{"first", "second"}},
		{"long word", "abcdefghijkl", 10, []string{"abcde", "fghij", "kl"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.in, tt.width, monospace)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Wrap() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClipLines(t *testing.T) {
	lines := []string{"a", "b", "c", "d"}

	assert.Equal(t, lines, ClipLines(lines, 4))
	assert.Equal(t, []string{"a", "b..."}, ClipLines(lines, 2))
	assert.Nil(t, ClipLines(lines, 0))
}

func TestPaginate_SinglePage(t *testing.T) {
	g := A4()
	plan := Paginate(RowHeights(3, g), g)

	require.Equal(t, 1, plan.PageCount())
	want := []RowSlot{
		{Index: 0, Top: 169, Height: 10},
		{Index: 1, Top: 179, Height: 10},
		{Index: 2, Top: 189, Height: 10},
	}
	if diff := cmp.Diff(want, plan.Pages[0].Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, plan.TotalsPage)
	assert.Equal(t, 220.0, plan.TotalsY, "totals sit at 190 + 10 per row")
}

func TestPaginate_Empty(t *testing.T) {
	g := A4()
	plan := Paginate(nil, g)

	require.Equal(t, 1, plan.PageCount())
	assert.Empty(t, plan.Pages[0].Rows)
	assert.Equal(t, 190.0, plan.TotalsY)
}

func TestPaginate_TotalsMoveToNextPage(t *testing.T) {
	g := A4()
	plan := Paginate(RowHeights(5, g), g)

	require.Equal(t, 2, plan.PageCount())
	assert.Len(t, plan.Pages[0].Rows, 5)
	assert.False(t, plan.Pages[1].HasTable())
	assert.Equal(t, 1, plan.TotalsPage)
	assert.Equal(t, 41.0, plan.TotalsY)
}

func TestPaginate_ContinuationPages(t *testing.T) {
	g := A4()
	plan := Paginate(RowHeights(30, g), g)

	// 8 rows on page one (169..249), 22 on a continuation page (29..249)
	require.GreaterOrEqual(t, plan.PageCount(), 2)
	assert.Len(t, plan.Pages[0].Rows, 8)
	assert.Equal(t, g.Margin, plan.Pages[1].TableTop)
	assert.Equal(t, 29.0, plan.Pages[1].Rows[0].Top)
	assert.Equal(t, 8, plan.Pages[1].Rows[0].Index)

	var placed int
	for _, p := range plan.Pages {
		for _, r := range p.Rows {
			assert.LessOrEqual(t, r.Top+r.Height, g.BodyBottom)
			placed++
		}
	}
	assert.Equal(t, 30, placed)
	assert.LessOrEqual(t, plan.TotalsY+g.TotalsHeight, g.BodyBottom)
}

func TestPaginate_OversizedRow(t *testing.T) {
	g := A4()
	plan := Paginate([]float64{10, 300}, g)

	require.GreaterOrEqual(t, plan.PageCount(), 2)
	assert.Len(t, plan.Pages[0].Rows, 1)
	assert.Len(t, plan.Pages[1].Rows, 1)
}

func TestWrappedRowHeight(t *testing.T) {
	g := A4()
	assert.Equal(t, 10.0, WrappedRowHeight(1, g))
	assert.Equal(t, 19.0, WrappedRowHeight(3, g))
}

func TestFitBox(t *testing.T) {
	w, h := FitBox(400, 100, 40, 30)
	assert.InDelta(t, 40.0, w, 1e-9)
	assert.InDelta(t, 10.0, h, 1e-9)

	w, h = FitBox(100, 300, 40, 30)
	assert.InDelta(t, 10.0, w, 1e-9)
	assert.InDelta(t, 30.0, h, 1e-9)

	w, h = FitBox(0, 0, 50, 20)
	assert.Equal(t, 50.0, w)
	assert.Equal(t, 20.0, h)
}
