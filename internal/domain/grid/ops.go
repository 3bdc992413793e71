package grid

import "github.com/gameday-grid/gameday/internal/domain/layout"

// SelectLayout switches to layout id and marks the layout as chosen. Unknown
// ids leave the state unchanged.
func (s State) SelectLayout(id int) State {
	if !layout.Valid(id) {
		return s
	}
	s.LayoutID = id
	s.LayoutConfirmed = true
	return s.trim()
}

// PlaceAt shows webcastID at position. An assigned position keeps its slot
// and only the slot content changes; an unassigned one takes the lowest
// empty slot. A webcast already shown elsewhere trades places with whatever
// is at position instead of being loaded twice.
func (s State) PlaceAt(webcastID string, position int) State {
	if !s.LayoutConfirmed || webcastID == "" || !s.inRange(position) {
		return s
	}
	if s.WebcastAt(position) == webcastID {
		return s
	}
	if current := s.PositionOf(webcastID); current != Unassigned {
		if s.inRange(current) {
			return s.Swap(current, position)
		}
		// Shown outside the layout; cannot happen after trim, but drop it
		// so the id stays unique.
		s = s.Remove(webcastID)
	}

	if slot := s.Positions[position]; slot != Unassigned {
		s.Slots[slot] = Slot{WebcastID: webcastID}
		return s.trim()
	}

	slot := s.freeSlot()
	if slot == Unassigned {
		return s
	}
	s.Positions[position] = slot
	s.Slots[slot] = Slot{WebcastID: webcastID}
	return s.trim()
}

// Add shows webcastID at the lowest unassigned position of the layout. It
// does nothing when the webcast is already shown or the layout is full.
func (s State) Add(webcastID string) State {
	if !s.LayoutConfirmed || webcastID == "" || s.IsDisplayed(webcastID) {
		return s
	}
	for pos := 0; pos < s.Views(); pos++ {
		if s.Positions[pos] == Unassigned {
			return s.PlaceAt(webcastID, pos)
		}
	}
	return s
}

// Swap exchanges the slots behind positions a and b. Slot contents and
// livescore flags are untouched.
func (s State) Swap(a, b int) State {
	if !s.inRange(a) || !s.inRange(b) {
		return s
	}
	s.Positions[a], s.Positions[b] = s.Positions[b], s.Positions[a]
	return s
}

// Remove takes webcastID off the grid.
func (s State) Remove(webcastID string) State {
	if !s.IsDisplayed(webcastID) {
		return s
	}
	return s.clearWhere(func(sl Slot) bool { return sl.WebcastID == webcastID })
}

// Prune removes every displayed webcast keep rejects.
func (s State) Prune(keep func(webcastID string) bool) State {
	return s.clearWhere(func(sl Slot) bool { return !sl.Empty() && !keep(sl.WebcastID) })
}

// Reset empties every slot and position. The layout is kept.
func (s State) Reset() State {
	confirmed, id := s.LayoutConfirmed, s.LayoutID
	s = New()
	s.LayoutID, s.LayoutConfirmed = id, confirmed
	return s
}

// ToggleLivescore flips the livescore overlay of the slot at position.
func (s State) ToggleLivescore(position int) State {
	if !s.inRange(position) {
		return s
	}
	slot := s.Positions[position]
	if slot == Unassigned || s.Slots[slot].Empty() {
		return s
	}
	s.Slots[slot].Livescore = !s.Slots[slot].Livescore
	return s
}

// clearWhere empties matching slots and unassigns positions pointing at them.
func (s State) clearWhere(match func(Slot) bool) State {
	var cleared [layout.MaxSlots]bool
	for i, sl := range s.Slots {
		if match(sl) {
			s.Slots[i] = Slot{}
			cleared[i] = true
		}
	}
	for pos, slot := range s.Positions {
		if slot != Unassigned && cleared[slot] {
			s.Positions[pos] = Unassigned
		}
	}
	return s
}

// freeSlot returns the lowest slot that is empty and unreferenced.
func (s State) freeSlot() int {
	var used [layout.MaxSlots]bool
	for _, slot := range s.Positions {
		if slot != Unassigned {
			used[slot] = true
		}
	}
	for i, sl := range s.Slots {
		if sl.Empty() && !used[i] {
			return i
		}
	}
	return Unassigned
}

// trim reconciles assigned positions with the current layout's capacity.
//
// Surplus assignments are dropped from the highest position down, emptying
// their slots. If a survivor still sits beyond the layout, the survivors are
// packed to the front in their original order and the rest padded with
// Unassigned, so empty positions are discarded before occupied ones. A grid
// that already fits is returned as is; growing never auto-fills.
func (s State) trim() State {
	maxViews := s.Views()

	for pos := layout.MaxSlots - 1; pos >= 0 && s.AssignedCount() > maxViews; pos-- {
		slot := s.Positions[pos]
		if slot == Unassigned {
			continue
		}
		s.Positions[pos] = Unassigned
		s.Slots[slot] = Slot{}
	}

	overflow := false
	for pos := maxViews; pos < layout.MaxSlots; pos++ {
		if s.Positions[pos] != Unassigned {
			overflow = true
			break
		}
	}
	if !overflow {
		return s
	}

	packed := [layout.MaxSlots]int{}
	n := 0
	for _, slot := range s.Positions {
		if slot != Unassigned {
			packed[n] = slot
			n++
		}
	}
	for ; n < layout.MaxSlots; n++ {
		packed[n] = Unassigned
	}
	s.Positions = packed
	return s
}
