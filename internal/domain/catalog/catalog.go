// Package catalog normalizes the webcast feed into an immutable lookup of
// webcast records keyed by a derived, stable id.
package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind names the embed provider of a webcast. The catalog never interprets
// it; unknown kinds are carried as-is.
type Kind string

// Known embed providers.
const (
	KindTwitch     Kind = "twitch"
	KindYouTube    Kind = "youtube"
	KindLivestream Kind = "livestream"
	KindUstream    Kind = "ustream"
	KindIframe     Kind = "iframe"
	KindHTML5      Kind = "html5"
	KindDacast     Kind = "dacast"
	KindDirectLink Kind = "direct_link"
	KindMMS        Kind = "mms"
	KindRTMP       Kind = "rtmp"
)

// idSeparator joins a source key and a stream index. Because the index is
// always a decimal suffix, splitting at the last separator recovers both.
const idSeparator = "-"

// Record is one webcast as seen by the grid.
type Record struct {
	ID          string  `json:"id"`
	SourceKey   string  `json:"source_key"`
	Index       int     `json:"index"`
	DisplayName string  `json:"name"`
	Kind        Kind    `json:"type"`
	Channel     string  `json:"channel"`
	File        string  `json:"file,omitempty"`
	SortRank    *int    `json:"sort_rank,omitempty"`
	Status      *string `json:"status,omitempty"`
	StreamTitle *string `json:"stream_title,omitempty"`
	ViewerCount *int    `json:"viewer_count,omitempty"`
}

// Catalog is an immutable snapshot of records. Build a new one for every
// feed update instead of mutating.
type Catalog struct {
	records map[string]Record
	special map[string]struct{}
}

// Empty returns a catalog without records.
func Empty() *Catalog {
	return &Catalog{
		records: map[string]Record{},
		special: map[string]struct{}{},
	}
}

// DeriveID returns the join key for stream index of source sourceKey.
func DeriveID(sourceKey string, index int) string {
	return sourceKey + idSeparator + strconv.Itoa(index)
}

// ParseID splits an id produced by DeriveID.
func ParseID(id string) (sourceKey string, index int, ok bool) {
	i := strings.LastIndex(id, idSeparator)
	if i <= 0 || i == len(id)-1 {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n < 0 || strconv.Itoa(n) != id[i+1:] {
		return "", 0, false
	}
	return id[:i], n, true
}

// BuildCatalog converts a feed into a catalog. It fails on entries without
// a key and on two entries deriving the same id; both indicate bad upstream
// data.
func BuildCatalog(feed Feed) (*Catalog, error) {
	c := Empty()

	for i, sw := range feed.Special {
		if strings.TrimSpace(sw.KeyName) == "" {
			return nil, fmt.Errorf("%w: special webcast %d has no key_name", ErrInvalidFeed, i)
		}
		rank := i
		rec := newRecord(sw.KeyName, 0, sw.Name, sw.Stream)
		rec.SortRank = &rank
		if err := c.add(rec); err != nil {
			return nil, err
		}
		c.special[rec.ID] = struct{}{}
	}

	for i, ev := range feed.Events {
		if strings.TrimSpace(ev.Key) == "" {
			return nil, fmt.Errorf("%w: event %d has no key", ErrInvalidFeed, i)
		}
		name := ev.Name
		if ev.ShortName != nil && *ev.ShortName != "" {
			name = *ev.ShortName
		}
		multi := len(ev.Webcasts) > 1
		for j, st := range ev.Webcasts {
			display := name
			if multi {
				display = name + " " + strconv.Itoa(j+1)
			}
			if err := c.add(newRecord(ev.Key, j, display, st)); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func newRecord(sourceKey string, index int, name string, st Stream) Record {
	return Record{
		ID:          DeriveID(sourceKey, index),
		SourceKey:   sourceKey,
		Index:       index,
		DisplayName: name,
		Kind:        st.Type,
		Channel:     st.Channel,
		File:        st.File,
		Status:      st.Status,
		StreamTitle: st.StreamTitle,
		ViewerCount: st.ViewerCount,
	}
}

func (c *Catalog) add(r Record) error {
	if _, dup := c.records[r.ID]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateWebcastID, r.ID)
	}
	c.records[r.ID] = r
	return nil
}

// Get returns the record for id.
func (c *Catalog) Get(id string) (Record, bool) {
	r, ok := c.records[id]
	return r, ok
}

// Has reports whether id is in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.records[id]
	return ok
}

// Len returns the number of records.
func (c *Catalog) Len() int { return len(c.records) }

// IDs returns every id in lexical order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.records))
	for id := range c.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Records returns every record in id order.
func (c *Catalog) Records() []Record {
	ids := c.IDs()
	out := make([]Record, len(ids))
	for i, id := range ids {
		out[i] = c.records[id]
	}
	return out
}

// IsSpecial reports whether id came from a curated special webcast.
func (c *Catalog) IsSpecial(id string) bool {
	_, ok := c.special[id]
	return ok
}

// SpecialIDs returns the curated ids in lexical order.
func (c *Catalog) SpecialIDs() []string {
	ids := make([]string, 0, len(c.special))
	for id := range c.special {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
