package opencv

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"time"

	"github.com/fiapx/fiapx-analysis-service/internal/domain/entity"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/port"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// FrameSourceOpener decodes videos with OpenCV's VideoCapture.
type FrameSourceOpener struct {
	logger *zap.Logger
}

func NewFrameSourceOpener(logger *zap.Logger) *FrameSourceOpener {
	return &FrameSourceOpener{logger: logger}
}

func (o *FrameSourceOpener) Open(_ context.Context, videoPath string) (port.FrameSource, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrSourceOpen, err)
	}

	capture, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", entity.ErrSourceOpen, videoPath, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: unsupported or unreadable video %s", entity.ErrSourceOpen, videoPath)
	}

	o.logger.Debug("video capture opened",
		zap.String("video", videoPath),
		zap.Float64("fps", capture.Get(gocv.VideoCaptureFPS)),
		zap.Float64("frame_count", capture.Get(gocv.VideoCaptureFrameCount)),
	)

	return &frameSource{capture: capture, mat: gocv.NewMat()}, nil
}

type frameSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	index   int
	closed  bool
}

func (s *frameSource) Next() (entity.RawFrame, error) {
	if s.closed {
		return entity.RawFrame{}, io.EOF
	}
	// VideoCapture.Read reports a corrupt packet and the end of the stream the
	// same way, and FrameCount is only a container estimate. Both end the pass
	// as io.EOF here, so a truncated recording yields a short result with no
	// DecodeError.
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return entity.RawFrame{}, io.EOF
	}

	posMsec := s.capture.Get(gocv.VideoCapturePosMsec)
	img, err := toRGBA(s.mat)
	if err != nil {
		return entity.RawFrame{}, fmt.Errorf("%w: frame %d: %w", entity.ErrDecode, s.index, err)
	}

	frame := entity.RawFrame{
		Index:     s.index,
		Timestamp: time.Duration(posMsec * float64(time.Millisecond)),
		Image:     img,
	}
	s.index++
	return frame, nil
}

func (s *frameSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.mat.Close()
	return s.capture.Close()
}

func toRGBA(mat gocv.Mat) (*image.RGBA, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}
