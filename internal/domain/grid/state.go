// Package grid implements the video-grid state machine behind the
// multi-webcast viewer.
//
// A grid separates what the user sees (logical positions inside the chosen
// layout) from where a player lives (physical slots). Slots are allocated
// once, MaxSlots of them, and a player element stays bound to its slot for
// as long as the slot holds the same webcast. Layout switches and swaps only
// rewrite the position -> slot indirection, so running players are never
// torn down needlessly.
//
// State is a plain comparable value. Every operation returns a new State and
// invalid arguments yield the input unchanged.
package grid

import "github.com/gameday-grid/gameday/internal/domain/layout"

// Unassigned marks a logical position that points at no slot.
const Unassigned = -1

// Slot is one physical player location.
type Slot struct {
	WebcastID string `json:"webcast_id,omitempty"`
	Livescore bool   `json:"livescore"`
}

// Empty reports whether the slot holds no webcast.
func (s Slot) Empty() bool { return s.WebcastID == "" }

// State is the whole grid of one viewer.
type State struct {
	LayoutID        int                   `json:"layout_id"`
	LayoutConfirmed bool                  `json:"layout_confirmed"`
	Positions       [layout.MaxSlots]int  `json:"positions"`
	Slots           [layout.MaxSlots]Slot `json:"slots"`
}

// New returns a grid with every slot empty and no layout chosen yet.
func New() State {
	var s State
	for i := range s.Positions {
		s.Positions[i] = Unassigned
	}
	return s
}

// Views returns how many logical positions the current layout provides.
func (s State) Views() int {
	v, _ := layout.ViewsFor(s.LayoutID)
	return v
}

// inRange reports whether position is usable in the current layout.
func (s State) inRange(position int) bool {
	return position >= 0 && position < s.Views() && position < layout.MaxSlots
}

// SlotAt returns the slot index behind position, or Unassigned.
func (s State) SlotAt(position int) int {
	if position < 0 || position >= layout.MaxSlots {
		return Unassigned
	}
	return s.Positions[position]
}

// WebcastAt returns the webcast shown at position, or "".
func (s State) WebcastAt(position int) string {
	slot := s.SlotAt(position)
	if slot == Unassigned {
		return ""
	}
	return s.Slots[slot].WebcastID
}

// PositionOf returns the first position showing webcastID, or Unassigned.
func (s State) PositionOf(webcastID string) int {
	if webcastID == "" {
		return Unassigned
	}
	for pos, slot := range s.Positions {
		if slot != Unassigned && s.Slots[slot].WebcastID == webcastID {
			return pos
		}
	}
	return Unassigned
}

// IsDisplayed reports whether any slot holds webcastID.
func (s State) IsDisplayed(webcastID string) bool {
	if webcastID == "" {
		return false
	}
	for _, sl := range s.Slots {
		if sl.WebcastID == webcastID {
			return true
		}
	}
	return false
}

// DisplayedIDs returns the ids held by slots, in slot order. It is derived
// from the slots on every call so it cannot drift from them.
func (s State) DisplayedIDs() []string {
	ids := make([]string, 0, layout.MaxSlots)
	for _, sl := range s.Slots {
		if !sl.Empty() {
			ids = append(ids, sl.WebcastID)
		}
	}
	return ids
}

// AssignedCount returns the number of positions pointing at a slot.
func (s State) AssignedCount() int {
	n := 0
	for _, slot := range s.Positions {
		if slot != Unassigned {
			n++
		}
	}
	return n
}

// Occupant describes one visible webcast.
type Occupant struct {
	Position  int    `json:"position"`
	Slot      int    `json:"slot"`
	WebcastID string `json:"webcast_id"`
	Livescore bool   `json:"livescore"`
}

// Occupied lists the assigned positions of the current layout in order.
func (s State) Occupied() []Occupant {
	out := make([]Occupant, 0, layout.MaxSlots)
	for pos := 0; pos < s.Views() && pos < layout.MaxSlots; pos++ {
		slot := s.Positions[pos]
		if slot == Unassigned {
			continue
		}
		out = append(out, Occupant{
			Position:  pos,
			Slot:      slot,
			WebcastID: s.Slots[slot].WebcastID,
			Livescore: s.Slots[slot].Livescore,
		})
	}
	return out
}
