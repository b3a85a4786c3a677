package opencv

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/fiapx/fiapx-analysis-service/internal/domain/entity"
	"gocv.io/x/gocv"
)

// CursorDetector locates a pointer glyph by normalized cross-correlation and
// reports the glyph's box when the best score clears the threshold.
type CursorDetector struct {
	mu        sync.Mutex
	template  gocv.Mat
	threshold float32
}

func NewCursorDetector(templatePath string, threshold float64) (*CursorDetector, error) {
	if templatePath == "" {
		return nil, errors.New("cursor strategy requires a template path")
	}
	tmpl := gocv.IMRead(templatePath, gocv.IMReadGrayScale)
	if tmpl.Empty() {
		tmpl.Close()
		return nil, fmt.Errorf("read cursor template %s", templatePath)
	}
	return &CursorDetector{template: tmpl, threshold: float32(threshold)}, nil
}

// NewCursorDetectorFromImage builds a detector from an in-memory glyph.
func NewCursorDetectorFromImage(glyph image.Image, threshold float64) (*CursorDetector, error) {
	rgb, err := gocv.ImageToMatRGB(glyph)
	if err != nil {
		return nil, fmt.Errorf("convert cursor template: %w", err)
	}
	defer rgb.Close()

	tmpl := gocv.NewMat()
	gocv.CvtColor(rgb, &tmpl, gocv.ColorBGRToGray)
	return &CursorDetector{template: tmpl, threshold: float32(threshold)}, nil
}

func (d *CursorDetector) Detect(frame entity.RawFrame) ([]entity.Region, error) {
	gray, err := grayMat(frame)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if gray.Cols() < d.template.Cols() || gray.Rows() < d.template.Rows() {
		return nil, nil
	}

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(gray, d.template, &result, gocv.TmCcoeffNormed, mask)

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)
	if maxVal <= d.threshold {
		return nil, nil
	}
	return []entity.Region{{
		X: maxLoc.X,
		Y: maxLoc.Y,
		W: d.template.Cols(),
		H: d.template.Rows(),
	}}, nil
}

func (d *CursorDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.template.Close()
}
