package grid

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gameday-grid/gameday/internal/domain/layout"
)

const (
	queryLayout     = "layout"
	queryViewPrefix = "view_"
)

// EncodeQuery renders the visible grid as share-link query parameters:
// layout=<id> and view_<position>=<webcast id>. Slot numbers are local to a
// viewer and not encoded.
func EncodeQuery(s State) url.Values {
	v := url.Values{}
	if !s.LayoutConfirmed {
		return v
	}
	v.Set(queryLayout, strconv.Itoa(s.LayoutID))
	for _, o := range s.Occupied() {
		v.Set(queryViewPrefix+strconv.Itoa(o.Position), o.WebcastID)
	}
	return v
}

// DecodeQuery rebuilds a grid from share-link parameters by replaying the
// layout choice and then each placement in position order. Entries that do
// not parse are skipped.
func DecodeQuery(v url.Values) State {
	s := New()
	id, err := strconv.Atoi(v.Get(queryLayout))
	if err != nil {
		return s
	}
	s = s.SelectLayout(id)
	for pos := 0; pos < layout.MaxSlots; pos++ {
		webcastID := strings.TrimSpace(v.Get(queryViewPrefix + strconv.Itoa(pos)))
		if webcastID == "" {
			continue
		}
		s = s.PlaceAt(webcastID, pos)
	}
	return s
}
