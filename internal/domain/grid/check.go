package grid

import (
	"fmt"

	"github.com/gameday-grid/gameday/internal/domain/layout"
)

// Check verifies that positions and slots agree with each other. The
// operations in this package keep it true; Check exists for tests, the
// simulator and states decoded from outside.
func (s State) Check() error {
	if !layout.Valid(s.LayoutID) {
		return fmt.Errorf("%w: unknown layout %d", ErrInconsistent, s.LayoutID)
	}
	views := s.Views()

	var referenced [layout.MaxSlots]bool
	for pos, slot := range s.Positions {
		if slot == Unassigned {
			continue
		}
		if slot < 0 || slot >= layout.MaxSlots {
			return fmt.Errorf("%w: position %d points at slot %d", ErrInconsistent, pos, slot)
		}
		if pos >= views {
			return fmt.Errorf("%w: position %d assigned beyond %d views", ErrInconsistent, pos, views)
		}
		if referenced[slot] {
			return fmt.Errorf("%w: slot %d referenced twice", ErrInconsistent, slot)
		}
		referenced[slot] = true
		if s.Slots[slot].Empty() {
			return fmt.Errorf("%w: position %d points at empty slot %d", ErrInconsistent, pos, slot)
		}
	}

	seen := make(map[string]int, layout.MaxSlots)
	for i, sl := range s.Slots {
		if sl.Empty() {
			if sl.Livescore {
				return fmt.Errorf("%w: empty slot %d has livescore on", ErrInconsistent, i)
			}
			continue
		}
		if !referenced[i] {
			return fmt.Errorf("%w: slot %d holds %q but no position shows it", ErrInconsistent, i, sl.WebcastID)
		}
		if prev, dup := seen[sl.WebcastID]; dup {
			return fmt.Errorf("%w: %q in slots %d and %d", ErrInconsistent, sl.WebcastID, prev, i)
		}
		seen[sl.WebcastID] = i
	}
	return nil
}
