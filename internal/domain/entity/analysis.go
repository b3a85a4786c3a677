package entity

import (
	"image"
	"time"
)

// RawFrame is one decoded frame. It is owned by the frame source and must not
// be retained after the frame's event has been assembled.
type RawFrame struct {
	Index     int
	Timestamp time.Duration
	Image     *image.RGBA
}

// Region is an axis-aligned rectangle in frame pixel coordinates.
type Region struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func RegionFromRect(r image.Rectangle) Region {
	return Region{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// AspectRatio returns width/height, or 0 for a degenerate region.
func (r Region) AspectRatio() float64 {
	if r.H <= 0 {
		return 0
	}
	return float64(r.W) / float64(r.H)
}

// Clamp intersects the region with bounds. The result may be empty.
func (r Region) Clamp(bounds image.Rectangle) image.Rectangle {
	return r.Rect().Intersect(bounds)
}

type DetectedText struct {
	Text string `json:"text"`
	BBox Region `json:"bbox"`
}

type FrameEvent struct {
	Frame            int            `json:"frame"`
	TimestampSeconds float64        `json:"timestamp_seconds"`
	ClickableRegions []Region       `json:"clickable_regions"`
	DetectedText     []DetectedText `json:"detected_text"`
}

// AnalysisResult is the terminal artifact of one pass over a video.
// DecodeError is set when the stream ended early on a decode failure.
type AnalysisResult struct {
	TotalFrames int          `json:"total_frames"`
	Events      []FrameEvent `json:"events"`
	DecodeError string       `json:"decode_error,omitempty"`
}

func (r *AnalysisResult) RegionCount() int {
	n := 0
	for _, ev := range r.Events {
		n += len(ev.ClickableRegions)
	}
	return n
}

func (r *AnalysisResult) TextCount() int {
	n := 0
	for _, ev := range r.Events {
		n += len(ev.DetectedText)
	}
	return n
}
