package server

import (
	"github.com/MeKo-Tech/docweave/internal/detector"
	"github.com/MeKo-Tech/docweave/internal/document"
	"github.com/MeKo-Tech/docweave/internal/geometry"
	"github.com/MeKo-Tech/docweave/internal/raster"
)

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// MapPayload is a probability map on the wire.
type MapPayload struct {
	Height int       `json:"height"`
	Width  int       `json:"width"`
	Data   []float32 `json:"data"`
}

func (m MapPayload) probabilityMap() detector.ProbabilityMap {
	return raster.ProbabilityMap{Height: m.Height, Width: m.Width, Data: m.Data}
}

// ExtractRequest asks for word boxes of one or more probability maps.
type ExtractRequest struct {
	Maps []MapPayload `json:"maps"`
	// RotatedBBox overrides the server's box mode for this request.
	RotatedBBox *bool `json:"rotated_bbox,omitempty"`
}

// PageBoxes is the extraction result of one page.
type PageBoxes struct {
	Page            int                  `json:"page_idx"`
	Boxes           []geometry.ScoredBox `json:"boxes"`
	Angle           float64              `json:"angle"`
	AngleConfidence float64              `json:"angle_confidence"`
}

// ExtractResponse is returned by /v1/extract.
type ExtractResponse struct {
	RequestID string      `json:"request_id"`
	Pages     []PageBoxes `json:"pages"`
}

// AssemblePage is one page of an AssembleRequest.
type AssemblePage struct {
	Boxes       []geometry.ScoredBox  `json:"boxes"`
	Dimensions  document.Dimensions   `json:"dimensions"`
	Orientation *document.Orientation `json:"orientation,omitempty"`
	Language    *document.Language    `json:"language,omitempty"`
}

// AssembleRequest carries boxes per page and the recognized strings of all
// pages concatenated in box order.
type AssembleRequest struct {
	Pages   []AssemblePage `json:"pages"`
	Strings []string       `json:"strings"`
}

// ErrorResponse describes a failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Type      string `json:"type"`
	Page      *int   `json:"page,omitempty"`
	Pages     []int  `json:"failed_pages,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// StreamMessage is sent over /v1/stream. Type is "page", "error" or "done".
type StreamMessage struct {
	Type      string     `json:"type"`
	RequestID string     `json:"request_id,omitempty"`
	Page      *int       `json:"page,omitempty"`
	Result    *PageBoxes `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	Total     int        `json:"total,omitempty"`
	Failed    int        `json:"failed,omitempty"`
}
