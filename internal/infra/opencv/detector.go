package opencv

import (
	"errors"
	"fmt"

	"github.com/fiapx/fiapx-analysis-service/internal/analysis"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/entity"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/port"
	"gocv.io/x/gocv"
)

// NewRegionDetector builds the candidate region strategy named by cfg.Strategy.
func NewRegionDetector(cfg analysis.DetectionConfig) (port.RegionDetector, error) {
	switch cfg.Strategy {
	case "", analysis.StrategyEdge:
		return NewEdgeDetector(cfg.CannyLow, cfg.CannyHigh, cfg.ClickFilter), nil
	case analysis.StrategyThreshold:
		return NewThresholdDetector(cfg.BinaryThreshold, cfg.TextBlockFilter), nil
	case analysis.StrategyCursor:
		return NewCursorDetector(cfg.CursorTemplatePath, cfg.CursorThreshold)
	default:
		return nil, fmt.Errorf("unknown detector strategy %q", cfg.Strategy)
	}
}

// EdgeDetector finds button-like shapes: Canny edges, outer contours, then the
// click region filter.
type EdgeDetector struct {
	low    float32
	high   float32
	filter analysis.RegionFilter
}

func NewEdgeDetector(low, high float64, filter analysis.RegionFilter) *EdgeDetector {
	return &EdgeDetector{low: float32(low), high: float32(high), filter: filter}
}

func (d *EdgeDetector) Detect(frame entity.RawFrame) ([]entity.Region, error) {
	gray, err := grayMat(frame)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, d.low, d.high)

	return d.filter.Apply(boundingBoxes(edges)), nil
}

// ThresholdDetector finds bright, high contrast blocks with a fixed intensity
// cutoff. It keeps anything at least the text block size.
type ThresholdDetector struct {
	cutoff float32
	filter analysis.RegionFilter
}

func NewThresholdDetector(cutoff float64, filter analysis.RegionFilter) *ThresholdDetector {
	return &ThresholdDetector{cutoff: float32(cutoff), filter: filter}
}

func (d *ThresholdDetector) Detect(frame entity.RawFrame) ([]entity.Region, error) {
	gray, err := grayMat(frame)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, d.cutoff, 255, gocv.ThresholdBinary)

	return d.filter.Apply(boundingBoxes(binary)), nil
}

func grayMat(frame entity.RawFrame) (gocv.Mat, error) {
	if frame.Image == nil {
		return gocv.Mat{}, errors.New("frame has no image")
	}
	src, err := gocv.ImageToMatRGB(frame.Image)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("convert frame %d: %w", frame.Index, err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	return gray, nil
}

// boundingBoxes returns the bounding box of every outer contour in discovery order.
func boundingBoxes(binary gocv.Mat) []entity.Region {
	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	boxes := make([]entity.Region, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		boxes = append(boxes, entity.RegionFromRect(gocv.BoundingRect(contours.At(i))))
	}
	return boxes
}
