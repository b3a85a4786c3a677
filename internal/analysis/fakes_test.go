package analysis

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fiapx/fiapx-analysis-service/internal/domain/entity"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/port"
)

// fakeSource replays a fixed list of frames, optionally failing after them.
type fakeSource struct {
	frames  []entity.RawFrame
	failErr error
	pos     int
	closed  int
}

func (s *fakeSource) Next() (entity.RawFrame, error) {
	if s.pos >= len(s.frames) {
		if s.failErr != nil {
			return entity.RawFrame{}, s.failErr
		}
		return entity.RawFrame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *fakeSource) Close() error {
	s.closed++
	return nil
}

// fakeOpener hands out a fresh fakeSource over the same frames on every Open.
type fakeOpener struct {
	frames  []entity.RawFrame
	failErr error
	openErr error
	sources []*fakeSource
}

func (o *fakeOpener) Open(_ context.Context, _ string) (port.FrameSource, error) {
	if o.openErr != nil {
		return nil, o.openErr
	}
	src := &fakeSource{frames: o.frames, failErr: o.failErr}
	o.sources = append(o.sources, src)
	return src, nil
}

// paintedDetector returns the regions registered for each frame index.
type paintedDetector struct {
	regions  map[int][]entity.Region
	failOn   map[int]bool
	onDetect func(frame entity.RawFrame)
}

func (d *paintedDetector) Detect(frame entity.RawFrame) ([]entity.Region, error) {
	if d.onDetect != nil {
		d.onDetect(frame)
	}
	if d.failOn[frame.Index] {
		return nil, errBoom
	}
	return d.regions[frame.Index], nil
}

// labelRecognizer maps crop sizes to canned text, which keeps it
// deterministic without a real OCR engine.
type labelRecognizer struct {
	mu     sync.Mutex
	labels map[image.Point]string
	fail   map[image.Point]error
	delay  time.Duration
	calls  int
}

func (r *labelRecognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	size := img.Bounds().Size()
	if err, ok := r.fail[size]; ok {
		return "", err
	}
	return r.labels[size], nil
}

func (r *labelRecognizer) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func blankFrame(index, w, h int) entity.RawFrame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return entity.RawFrame{Index: index, Timestamp: time.Duration(index) * 40 * time.Millisecond, Image: img}
}

func frames(n, w, h int) []entity.RawFrame {
	out := make([]entity.RawFrame, n)
	for i := range out {
		out[i] = blankFrame(i, w, h)
	}
	return out
}

var errBoom = errors.New("boom")

func padded(s string) string {
	return "  " + s + "\n" + strings.Repeat(" ", 3)
}
