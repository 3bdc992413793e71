package simulate

import (
	"fmt"
	"slices"

	"github.com/gameday-grid/gameday/internal/domain/grid"
	"github.com/gameday-grid/gameday/internal/domain/types"
)

// verifyLocal checks the invariants of s and that its share link restores
// the same visible grid.
func verifyLocal(s grid.State) error {
	if err := s.Check(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	q := grid.EncodeQuery(s)
	restored := grid.DecodeQuery(q)
	if err := restored.Check(); err != nil {
		return fmt.Errorf("%w: restored share link: %w", ErrInvariant, err)
	}
	if got := grid.EncodeQuery(restored).Encode(); got != q.Encode() {
		return fmt.Errorf("%w: share link %q restores as %q", ErrInvariant, q.Encode(), got)
	}
	return nil
}

// verifyRemote compares the server's view of a session with the local
// state. Slots are compared too: both sides run the same reducer, so player
// placement must agree exactly.
func verifyRemote(local grid.State, remote types.GridView) error {
	want := types.NewGridView(remote.SessionID, local, nil)
	if want.Layout != remote.Layout || want.LayoutConfirmed != remote.LayoutConfirmed {
		return fmt.Errorf("%w: layout %d/%t, remote %d/%t", ErrMismatch,
			want.Layout.ID, want.LayoutConfirmed, remote.Layout.ID, remote.LayoutConfirmed)
	}
	if !slices.Equal(want.Displayed, remote.Displayed) {
		return fmt.Errorf("%w: displayed %v, remote %v", ErrMismatch, want.Displayed, remote.Displayed)
	}
	if len(want.Positions) != len(remote.Positions) {
		return fmt.Errorf("%w: %d positions, remote %d", ErrMismatch, len(want.Positions), len(remote.Positions))
	}
	for i, p := range want.Positions {
		r := remote.Positions[i]
		if p.Position != r.Position || p.Slot != r.Slot || p.WebcastID != r.WebcastID || p.Livescore != r.Livescore {
			return fmt.Errorf("%w: position %d local %+v, remote %+v", ErrMismatch, i, p, r)
		}
	}
	return nil
}
