package ffmpeg

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	vidio "github.com/AlexEidt/Vidio"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/entity"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/port"
	"go.uber.org/zap"
)

// FrameSourceOpener decodes videos through an ffmpeg subprocess, one RGBA frame
// at a time.
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

	video, err := vidio.NewVideo(videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", entity.ErrSourceOpen, videoPath, err)
	}

	o.logger.Debug("ffmpeg decoder opened",
		zap.String("video", videoPath),
		zap.Int("width", video.Width()),
		zap.Int("height", video.Height()),
		zap.Float64("fps", video.FPS()),
		zap.Int("frames", video.Frames()),
	)

	return &frameSource{video: video, fps: video.FPS()}, nil
}

type frameSource struct {
	video  *vidio.Video
	fps    float64
	index  int
	closed bool
}

func (s *frameSource) Next() (entity.RawFrame, error) {
	if s.closed {
		return entity.RawFrame{}, io.EOF
	}

	img := image.NewRGBA(image.Rect(0, 0, s.video.Width(), s.video.Height()))
	if err := s.video.SetFrameBuffer(img.Pix); err != nil {
		return entity.RawFrame{}, fmt.Errorf("%w: frame %d: %w", entity.ErrDecode, s.index, err)
	}
	if !s.video.Read() {
		return entity.RawFrame{}, io.EOF
	}

	var ts time.Duration
	if s.fps > 0 {
		ts = time.Duration(float64(s.index) / s.fps * float64(time.Second))
	}
	frame := entity.RawFrame{Index: s.index, Timestamp: ts, Image: img}
	s.index++
	return frame, nil
}

func (s *frameSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.video.Close()
	return nil
}
