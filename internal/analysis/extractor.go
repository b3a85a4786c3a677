package analysis

import (
	"context"
	"errors"
	"image"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/entity"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/port"
	"github.com/fiapx/fiapx-analysis-service/internal/infra/metrics"
	"go.uber.org/zap"
)

type TextExtractorConfig struct {
	// Timeout bounds a single region's OCR call. Zero disables the guard.
	Timeout time.Duration
	// MinCropHeight upscales shorter crops before recognition. Zero disables it.
	MinCropHeight int
}

// TextExtractor runs selective OCR over the candidate regions of one frame.
type TextExtractor struct {
	engine port.TextRecognizer
	cfg    TextExtractorConfig
	logger *zap.Logger
}

func NewTextExtractor(engine port.TextRecognizer, cfg TextExtractorConfig, logger *zap.Logger) *TextExtractor {
	return &TextExtractor{engine: engine, cfg: cfg, logger: logger}
}

// Extract returns the non-empty trimmed text found in each region, in region
// order. Regions are clamped to the frame before cropping. A failing OCR call
// skips its region.
func (e *TextExtractor) Extract(ctx context.Context, frame entity.RawFrame, regions []entity.Region) []entity.DetectedText {
	out := make([]entity.DetectedText, 0, len(regions))
	if frame.Image == nil {
		return out
	}
	bounds := frame.Image.Bounds()

	for _, r := range regions {
		if ctx.Err() != nil {
			return out
		}

		rect := r.Clamp(bounds)
		if rect.Empty() {
			continue
		}

		text, err := e.recognize(ctx, imaging.Crop(frame.Image, rect))
		if err != nil {
			metrics.OCRCallsTotal.WithLabelValues("error").Inc()
			if ctx.Err() != nil {
				return out
			}
			e.logger.Warn("ocr failed, skipping region",
				zap.Int("frame", frame.Index),
				zap.Any("region", r),
				zap.Error(err),
			)
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			metrics.OCRCallsTotal.WithLabelValues("empty").Inc()
			continue
		}
		metrics.OCRCallsTotal.WithLabelValues("text").Inc()
		out = append(out, entity.DetectedText{Text: text, BBox: r})
	}
	return out
}

func (e *TextExtractor) recognize(ctx context.Context, crop *image.NRGBA) (string, error) {
	if e.cfg.MinCropHeight > 0 && crop.Bounds().Dy() < e.cfg.MinCropHeight {
		crop = imaging.Resize(crop, 0, e.cfg.MinCropHeight, imaging.Lanczos)
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := e.engine.Recognize(ctx, crop)
	metrics.OCRDuration.Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, entity.ErrOCREngine) {
		err = errors.Join(entity.ErrOCREngine, err)
	}
	return text, err
}
