package analysis

import (
	"context"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/fiapx/fiapx-analysis-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newExtractor(r *labelRecognizer, cfg TextExtractorConfig) *TextExtractor {
	return NewTextExtractor(r, cfg, zap.NewNop())
}

func TestTextExtractor_TrimsAndDropsEmpty(t *testing.T) {
	rec := &labelRecognizer{labels: map[image.Point]string{
		{100, 40}: padded("OK"),
		{120, 40}: " \n\t ",
	}}
	frame := blankFrame(0, 640, 480)
	regions := []entity.Region{
		{X: 10, Y: 10, W: 100, H: 40},
		{X: 200, Y: 10, W: 120, H: 40},
	}

	got := newExtractor(rec, TextExtractorConfig{}).Extract(context.Background(), frame, regions)

	require.Len(t, got, 1)
	assert.Equal(t, entity.DetectedText{Text: "OK", BBox: regions[0]}, got[0])
	assert.Equal(t, 2, rec.callCount())
}

func TestTextExtractor_TextIsTrimmedAndIdempotent(t *testing.T) {
	rec := &labelRecognizer{labels: map[image.Point]string{
		{100, 40}: "\t Sign in \r\n",
		{150, 40}: "Cancel",
	}}
	frame := blankFrame(0, 640, 480)
	regions := []entity.Region{
		{X: 0, Y: 0, W: 100, H: 40},
		{X: 0, Y: 100, W: 150, H: 40},
	}

	got := newExtractor(rec, TextExtractorConfig{}).Extract(context.Background(), frame, regions)

	require.Len(t, got, 2)
	for _, dt := range got {
		assert.NotEmpty(t, dt.Text)
		assert.Equal(t, strings.TrimSpace(dt.Text), dt.Text)
	}
	assert.Equal(t, "Sign in", got[0].Text)
	assert.Equal(t, "Cancel", got[1].Text)
}

func TestTextExtractor_ClampsToFrame(t *testing.T) {
	rec := &labelRecognizer{labels: map[image.Point]string{
		{20, 20}: "edge",
	}}
	frame := blankFrame(0, 100, 50)
	partial := entity.Region{X: 80, Y: 30, W: 40, H: 40}
	outside := entity.Region{X: 200, Y: 200, W: 60, H: 30}
	negative := entity.Region{X: -50, Y: -50, W: 40, H: 20}

	got := newExtractor(rec, TextExtractorConfig{}).Extract(context.Background(), frame,
		[]entity.Region{outside, partial, negative})

	require.Len(t, got, 1)
	assert.Equal(t, "edge", got[0].Text)
	assert.Equal(t, partial, got[0].BBox, "bbox is reported as detected")
	assert.Equal(t, 1, rec.callCount(), "empty crops never reach the engine")
}

func TestTextExtractor_FailSoftKeepsOrder(t *testing.T) {
	rec := &labelRecognizer{
		labels: map[image.Point]string{
			{100, 40}: "first",
			{140, 40}: "third",
		},
		fail: map[image.Point]error{
			{120, 40}: errBoom,
		},
	}
	frame := blankFrame(3, 640, 480)
	regions := []entity.Region{
		{X: 0, Y: 0, W: 100, H: 40},
		{X: 0, Y: 50, W: 120, H: 40},
		{X: 0, Y: 100, W: 140, H: 40},
	}

	got := newExtractor(rec, TextExtractorConfig{}).Extract(context.Background(), frame, regions)

	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, regions[0], got[0].BBox)
	assert.Equal(t, "third", got[1].Text)
	assert.Equal(t, regions[2], got[1].BBox)
}

func TestTextExtractor_PerRegionTimeout(t *testing.T) {
	rec := &labelRecognizer{
		labels: map[image.Point]string{{100, 40}: "slow"},
		delay:  time.Second,
	}
	frame := blankFrame(0, 640, 480)
	regions := []entity.Region{
		{X: 0, Y: 0, W: 100, H: 40},
		{X: 0, Y: 100, W: 100, H: 40},
	}

	start := time.Now()
	got := newExtractor(rec, TextExtractorConfig{Timeout: 20 * time.Millisecond}).
		Extract(context.Background(), frame, regions)

	assert.Empty(t, got)
	assert.Equal(t, 2, rec.callCount(), "a timed-out region does not stop the frame")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestTextExtractor_UpscalesShortCrops(t *testing.T) {
	rec := &labelRecognizer{labels: map[image.Point]string{
		{128, 32}: "tiny",
	}}
	frame := blankFrame(0, 640, 480)

	got := newExtractor(rec, TextExtractorConfig{MinCropHeight: 32}).
		Extract(context.Background(), frame, []entity.Region{{X: 5, Y: 5, W: 40, H: 10}})

	require.Len(t, got, 1)
	assert.Equal(t, "tiny", got[0].Text)
	assert.Equal(t, entity.Region{X: 5, Y: 5, W: 40, H: 10}, got[0].BBox)
}

func TestTextExtractor_CancelledContext(t *testing.T) {
	rec := &labelRecognizer{labels: map[image.Point]string{{100, 40}: "OK"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := newExtractor(rec, TextExtractorConfig{}).
		Extract(ctx, blankFrame(0, 640, 480), []entity.Region{{W: 100, H: 40}})

	assert.Empty(t, got)
	assert.Zero(t, rec.callCount())
}

func TestTextExtractor_NoRegionsOrImage(t *testing.T) {
	rec := &labelRecognizer{}
	ex := newExtractor(rec, TextExtractorConfig{})

	assert.Empty(t, ex.Extract(context.Background(), blankFrame(0, 64, 64), nil))
	assert.Empty(t, ex.Extract(context.Background(), entity.RawFrame{}, []entity.Region{{W: 100, H: 40}}))
	assert.Zero(t, rec.callCount())
}
