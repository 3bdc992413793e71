package catalog

import (
	"encoding/json"
	"fmt"
	"io"
)

// Feed is the parsed webcast document published by the events backend.
type Feed struct {
	Special []SpecialWebcast `json:"special_webcasts"`
	Events  []EventWebcasts  `json:"ongoing_events_w_webcasts"`
}

// SpecialWebcast is a curated broadcast. Its position in Feed.Special is
// significant and becomes the record's sort rank.
type SpecialWebcast struct {
	KeyName string `json:"key_name"`
	Name    string `json:"name"`
	Stream
}

// EventWebcasts lists the streams of one ongoing event.
type EventWebcasts struct {
	Key       string   `json:"key"`
	Name      string   `json:"name"`
	ShortName *string  `json:"short_name,omitempty"`
	Webcasts  []Stream `json:"webcasts"`
}

// Stream carries the provider fields of a single webcast. Status,
// StreamTitle and ViewerCount are optional and passed through untouched.
type Stream struct {
	Type        Kind    `json:"type"`
	Channel     string  `json:"channel"`
	File        string  `json:"file,omitempty"`
	Status      *string `json:"status,omitempty"`
	StreamTitle *string `json:"stream_title,omitempty"`
	ViewerCount *int    `json:"viewer_count,omitempty"`
}

// ParseFeed decodes a feed document. Unknown fields are ignored.
func ParseFeed(r io.Reader) (Feed, error) {
	var f Feed
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return Feed{}, fmt.Errorf("%w: %w", ErrInvalidFeed, err)
	}
	return f, nil
}
