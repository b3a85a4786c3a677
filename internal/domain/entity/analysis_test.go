package entity

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegion_Geometry(t *testing.T) {
	r := RegionFromRect(image.Rect(10, 20, 110, 60))

	assert.Equal(t, Region{X: 10, Y: 20, W: 100, H: 40}, r)
	assert.Equal(t, image.Rect(10, 20, 110, 60), r.Rect())
	assert.InDelta(t, 2.5, r.AspectRatio(), 1e-9)
	assert.Zero(t, Region{W: 10}.AspectRatio())
}

func TestRegion_Clamp(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 50)

	assert.Equal(t, image.Rect(80, 30, 100, 50), Region{X: 80, Y: 30, W: 40, H: 40}.Clamp(bounds))
	assert.Equal(t, image.Rect(0, 0, 10, 10), Region{X: -5, Y: -5, W: 15, H: 15}.Clamp(bounds))
	assert.True(t, Region{X: 200, Y: 0, W: 10, H: 10}.Clamp(bounds).Empty())
}

func TestAnalysisResult_Counts(t *testing.T) {
	r := Region{W: 100, H: 40}
	res := &AnalysisResult{
		TotalFrames: 2,
		Events: []FrameEvent{
			{Frame: 0, ClickableRegions: []Region{r, r}, DetectedText: []DetectedText{{Text: "OK", BBox: r}}},
			{Frame: 1, ClickableRegions: []Region{r}},
		},
	}

	assert.Equal(t, 3, res.RegionCount())
	assert.Equal(t, 1, res.TextCount())
}
