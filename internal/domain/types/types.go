// Package types contains the read shapes returned to API clients.
package types

import (
	"github.com/gameday-grid/gameday/internal/domain/catalog"
	"github.com/gameday-grid/gameday/internal/domain/grid"
	"github.com/gameday-grid/gameday/internal/domain/layout"
)

// WebcastView is a catalog record as listed to clients.
type WebcastView struct {
	catalog.Record
	Special bool `json:"special"`
}

// PositionView is one logical position of a grid. Slot is the stable
// player handle a renderer keys its embed element by.
type PositionView struct {
	Position  int          `json:"position"`
	Slot      int          `json:"slot"`
	Livescore bool         `json:"livescore"`
	Webcast   *WebcastView `json:"webcast,omitempty"`
	WebcastID string       `json:"webcast_id,omitempty"`
}

// GridView is the renderable state of one session.
type GridView struct {
	SessionID       string         `json:"session_id"`
	Layout          layout.Layout  `json:"layout"`
	LayoutConfirmed bool           `json:"layout_confirmed"`
	Positions       []PositionView `json:"positions"`
	Displayed       []string       `json:"displayed"`
}

// NewWebcastView wraps r with its special flag from c.
func NewWebcastView(c *catalog.Catalog, r catalog.Record) WebcastView {
	return WebcastView{Record: r, Special: c.IsSpecial(r.ID)}
}

// NewGridView renders s for the client. Every position of the layout is
// listed; empty ones carry Slot == grid.Unassigned. Webcasts missing from c
// are reported by id only.
func NewGridView(sessionID string, s grid.State, c *catalog.Catalog) GridView {
	l, _ := layout.Lookup(s.LayoutID)
	v := GridView{
		SessionID:       sessionID,
		Layout:          l,
		LayoutConfirmed: s.LayoutConfirmed,
		Positions:       make([]PositionView, 0, l.Views),
		Displayed:       s.DisplayedIDs(),
	}
	if !s.LayoutConfirmed {
		return v
	}
	for pos := 0; pos < l.Views; pos++ {
		pv := PositionView{Position: pos, Slot: s.SlotAt(pos)}
		if pv.Slot != grid.Unassigned {
			sl := s.Slots[pv.Slot]
			pv.WebcastID = sl.WebcastID
			pv.Livescore = sl.Livescore
			if c != nil {
				if r, ok := c.Get(sl.WebcastID); ok {
					wv := NewWebcastView(c, r)
					pv.Webcast = &wv
				}
			}
		}
		v.Positions = append(v.Positions, pv)
	}
	return v
}
