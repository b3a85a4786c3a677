package port

import (
	"context"

	"github.com/fiapx/fiapx-analysis-service/internal/domain/entity"
)

// FrameSource yields decoded frames in decode order. Next returns io.EOF at
// the end of the stream. A source is not restartable.
type FrameSource interface {
	Next() (entity.RawFrame, error)
	Close() error
}

type FrameSourceOpener interface {
	Open(ctx context.Context, videoPath string) (FrameSource, error)
}
