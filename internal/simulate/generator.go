package simulate

import (
	"math/rand/v2"
	"strconv"

	"github.com/gameday-grid/gameday/internal/domain/catalog"
	"github.com/gameday-grid/gameday/internal/domain/grid"
	"github.com/gameday-grid/gameday/internal/domain/layout"
)

// ghostID is never in a catalog; removing it must be a no-op.
const ghostID = "ghost-0"

// weighted action mix; placements dominate as they do for real viewers.
var actionWeights = []struct {
	t      grid.ActionType
	weight int
}{
	{grid.ActionSelectLayout, 14},
	{grid.ActionPlace, 22},
	{grid.ActionAdd, 20},
	{grid.ActionSwap, 14},
	{grid.ActionRemove, 12},
	{grid.ActionToggleLivescore, 14},
	{grid.ActionReset, 4},
}

var totalWeight = func() int {
	n := 0
	for _, w := range actionWeights {
		n += w.weight
	}
	return n
}()

// generator produces a reproducible action stream for one session.
type generator struct {
	rng *rand.Rand
	ids []string
}

func newGenerator(seed, stream uint64, c *catalog.Catalog) *generator {
	return &generator{
		rng: rand.New(rand.NewPCG(seed, stream)),
		ids: c.IDs(),
	}
}

// position returns a logical position, out of range about one time in ten.
func (g *generator) position() int {
	if g.rng.IntN(10) == 0 {
		return g.rng.IntN(3) - 1 + layout.MaxSlots*g.rng.IntN(2)
	}
	return g.rng.IntN(layout.MaxSlots)
}

func (g *generator) webcast() string {
	return g.ids[g.rng.IntN(len(g.ids))]
}

// next returns an action valid for the current state s. Only catalog ids are
// placed, so a server applying the same stream reaches the same state.
func (g *generator) next(s grid.State) grid.Action {
	pick := g.rng.IntN(totalWeight)
	t := actionWeights[len(actionWeights)-1].t
	for _, w := range actionWeights {
		if pick < w.weight {
			t = w.t
			break
		}
		pick -= w.weight
	}

	a := grid.Action{Type: t}
	switch t {
	case grid.ActionSelectLayout:
		a.LayoutID = g.rng.IntN(layout.Count()+2) - 1
	case grid.ActionPlace:
		a.WebcastID = g.webcast()
		a.Position = g.position()
	case grid.ActionAdd:
		a.WebcastID = g.webcast()
	case grid.ActionSwap:
		a.Position = g.position()
		a.Other = g.position()
	case grid.ActionRemove:
		shown := s.DisplayedIDs()
		switch {
		case len(shown) > 0 && g.rng.IntN(4) != 0:
			a.WebcastID = shown[g.rng.IntN(len(shown))]
		case g.rng.IntN(2) == 0:
			a.WebcastID = ghostID
		default:
			a.WebcastID = g.webcast()
		}
	case grid.ActionToggleLivescore:
		a.Position = g.position()
	}
	return a
}

// replay reports whether the previous action id should be resent.
func (g *generator) replay() bool {
	return g.rng.IntN(20) == 0
}

// syntheticFeed builds a feed with n events, some with several streams,
// and two special webcasts.
func syntheticFeed(n int) catalog.Feed {
	kinds := []catalog.Kind{catalog.KindYouTube, catalog.KindTwitch, catalog.KindLivestream}
	f := catalog.Feed{
		Special: []catalog.SpecialWebcast{
			{KeyName: "tba", Name: "TBA GameDay", Stream: catalog.Stream{Type: catalog.KindTwitch, Channel: "tbagameday"}},
			{KeyName: "firstinspires", Name: "FIRST Updates", Stream: catalog.Stream{Type: catalog.KindYouTube, Channel: "firstinspires"}},
		},
	}
	for i := range n {
		key := "2024sim" + strconv.Itoa(i)
		ev := catalog.EventWebcasts{Key: key, Name: "Simulated Event " + strconv.Itoa(i)}
		for j := range 1 + i%3 {
			ev.Webcasts = append(ev.Webcasts, catalog.Stream{
				Type:    kinds[(i+j)%len(kinds)],
				Channel: key + "_" + strconv.Itoa(j),
			})
		}
		f.Events = append(f.Events, ev)
	}
	return f
}
