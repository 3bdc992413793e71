package api

import (
	"net/http"

	"github.com/gameday-grid/gameday/internal/domain/catalog"
	"github.com/gameday-grid/gameday/internal/domain/layout"
	"github.com/gameday-grid/gameday/internal/domain/types"
)

const maxFeedBytes = 4 << 20

// LayoutsHandler lists the layout table.
type LayoutsHandler struct{}

// NewLayoutsHandler creates a new layouts handler.
func NewLayoutsHandler() *LayoutsHandler {
	return &LayoutsHandler{}
}

// HandleListLayouts handles GET /layouts.
func (h *LayoutsHandler) HandleListLayouts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, layout.All())
}

// WebcastsHandler serves the webcast catalog.
type WebcastsHandler struct {
	deps Dependencies
}

// NewWebcastsHandler creates a new webcasts handler.
func NewWebcastsHandler(deps Dependencies) *WebcastsHandler {
	return &WebcastsHandler{deps: deps}
}

type webcastsResponse struct {
	Count    int                 `json:"count"`
	Webcasts []types.WebcastView `json:"webcasts"`
}

func listWebcasts(c *catalog.Catalog) webcastsResponse {
	records := catalog.RecordsInDisplayOrder(c)
	out := webcastsResponse{Count: len(records), Webcasts: make([]types.WebcastView, 0, len(records))}
	for _, r := range records {
		out.Webcasts = append(out.Webcasts, types.NewWebcastView(c, r))
	}
	return out
}

// HandleListWebcasts handles GET /webcasts: the catalog in display order.
func (h *WebcastsHandler) HandleListWebcasts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, listWebcasts(h.deps.Catalog()))
}

// HandleReplaceWebcasts handles PUT /webcasts with a feed document.
func (h *WebcastsHandler) HandleReplaceWebcasts(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxFeedBytes)
	c, err := h.deps.UpdateCatalogFrom(r.Context(), body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listWebcasts(c))
}
