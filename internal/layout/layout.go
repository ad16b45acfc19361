// Package layout computes where each card lands on a printed sheet.
//
// Cards are packed into a fixed 3x3 grid on 8.5x11in pages expressed at
// 300 units per inch, so one page is 2550x3300 and one card is 750x1050.
// Rows are 1075 apart and columns 775 apart, leaving a 25 unit gutter, with
// a 50 unit top margin and a 75 unit left margin.
//
// Placement coordinates use the PDF convention: origin at the bottom-left
// corner of the page, y growing upwards.
package layout

const (
	PageWidth  = 2550.0
	PageHeight = 3300.0

	CardWidth  = 750.0
	CardHeight = 1050.0

	Columns      = 3
	Rows         = 3
	SlotsPerPage = Columns * Rows

	ColumnPitch = 775.0
	RowPitch    = 1075.0
	LeftMargin  = 75.0
	TopMargin   = 50.0
)

// Slot is a grid position. Page is the page index, Row and Column are 0..2.
type Slot struct {
	Page   int
	Row    int
	Column int
}

// Placement is the rectangle a card is drawn into.
type Placement struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Top returns the distance from the top edge of a page of the given height.
func (p Placement) Top(pageHeight float64) float64 {
	return pageHeight - p.Y - p.Height
}

// Overlaps reports whether p and q share any interior area.
func (p Placement) Overlaps(q Placement) bool {
	return p.X < q.X+q.Width && q.X < p.X+p.Width &&
		p.Y < q.Y+q.Height && q.Y < p.Y+p.Height
}

// Item is one card on a page. Index is its position in the whole deck.
type Item struct {
	Index     int
	Slot      Slot
	Placement Placement
}

// Page holds up to SlotsPerPage items in deck order.
type Page struct {
	Index int
	Items []Item
}

// Grid is the page canvas the fixed card grid is laid on.
type Grid struct {
	PageWidth  float64
	PageHeight float64
}

// DefaultGrid is the 8.5x11in sheet.
var DefaultGrid = Grid{PageWidth: PageWidth, PageHeight: PageHeight}

// PageCount returns ceil(n/9), 0 for n <= 0.
func PageCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + SlotsPerPage - 1) / SlotsPerPage
}

// SlotFor returns the slot of the i-th card of a deck.
func SlotFor(i int) Slot {
	j := i % SlotsPerPage
	return Slot{
		Page:   i / SlotsPerPage,
		Row:    j / Columns,
		Column: j % Columns,
	}
}

// Place returns the placement of the j-th card within a page (0 <= j < 9).
func (g Grid) Place(j int) Placement {
	row := j / Columns
	column := j % Columns

	top := float64(row)*RowPitch + TopMargin
	left := float64(column)*ColumnPitch + LeftMargin

	return Placement{
		X:      left,
		Y:      g.PageHeight - top - CardHeight,
		Width:  CardWidth,
		Height: CardHeight,
	}
}

// Paginate splits n cards into pages of at most 9, in order.
func (g Grid) Paginate(n int) []Page {
	pages := make([]Page, PageCount(n))
	for p := range pages {
		start := p * SlotsPerPage
		end := min(start+SlotsPerPage, n)

		items := make([]Item, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, Item{
				Index:     i,
				Slot:      SlotFor(i),
				Placement: g.Place(i - start),
			})
		}
		pages[p] = Page{Index: p, Items: items}
	}
	return pages
}
