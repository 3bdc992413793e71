// Package layout holds the fixed table of grid layouts a viewer can pick.
//
// The table is configuration: every layout has an id, a display name and the
// number of logical viewing positions it provides. MaxSlots is the size of
// the physical slot array shared by every layout.
package layout

// MaxSlots is the largest number of views any layout provides. The physical
// slot array of a grid is allocated once with this size and never resized.
const MaxSlots = 9

// Layout describes one grid arrangement.
type Layout struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Views int    `json:"views"`
}

// table is indexed by layout id.
var table = [...]Layout{
	{ID: 0, Name: "Single View", Views: 1},
	{ID: 1, Name: "Vertical Split View", Views: 2},
	{ID: 2, Name: `"1+2" View`, Views: 3},
	{ID: 3, Name: "Quad View", Views: 4},
	{ID: 4, Name: `"1+5" View`, Views: 6},
	{ID: 5, Name: `"2+4" View`, Views: 6},
	{ID: 6, Name: `"1+3" View`, Views: 4},
	{ID: 7, Name: `"1+4" View`, Views: 5},
	{ID: 8, Name: `"3x3" View`, Views: 9},
}

// displayOrder lists layout ids the way a picker shows them (growing size).
var displayOrder = [...]int{0, 1, 2, 3, 6, 7, 4, 5, 8}

// Valid reports whether id names a layout.
func Valid(id int) bool {
	return id >= 0 && id < len(table)
}

// Lookup returns the layout with the given id.
func Lookup(id int) (Layout, bool) {
	if !Valid(id) {
		return Layout{}, false
	}
	return table[id], true
}

// ViewsFor returns the number of logical positions of layout id.
func ViewsFor(id int) (int, bool) {
	l, ok := Lookup(id)
	if !ok {
		return 0, false
	}
	return l.Views, true
}

// All returns every layout in display order.
func All() []Layout {
	out := make([]Layout, 0, len(displayOrder))
	for _, id := range displayOrder {
		out = append(out, table[id])
	}
	return out
}

// Count returns the number of layouts.
func Count() int { return len(table) }
