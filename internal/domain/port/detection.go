package port

import (
	"context"
	"image"

	"github.com/fiapx/fiapx-analysis-service/internal/domain/entity"
)

// RegionDetector extracts candidate regions from a single frame.
type RegionDetector interface {
	Detect(frame entity.RawFrame) ([]entity.Region, error)
}

// TextRecognizer runs OCR over a cropped sub-image.
type TextRecognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

type VideoAnalyzer interface {
	Analyze(ctx context.Context, videoPath string) (*entity.AnalysisResult, error)
}

type VideoProber interface {
	Duration(ctx context.Context, videoPath string) (float64, error)
}
