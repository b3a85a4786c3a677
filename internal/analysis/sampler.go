package analysis

import (
	"github.com/fiapx/fiapx-analysis-service/internal/domain/entity"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/port"
)

const DefaultStride = 5

type sampledSource struct {
	src     port.FrameSource
	stride  int
	decoded int
	kept    int
}

// Sample keeps every stride-th decoded frame, renumbering kept frames from 0
// and preserving each kept frame's stream timestamp. A stride of 1 or less
// returns src unchanged.
func Sample(src port.FrameSource, stride int) port.FrameSource {
	if stride <= 1 {
		return src
	}
	return &sampledSource{src: src, stride: stride}
}

func (s *sampledSource) Next() (entity.RawFrame, error) {
	for {
		frame, err := s.src.Next()
		if err != nil {
			return entity.RawFrame{}, err
		}
		pos := s.decoded
		s.decoded++
		if pos%s.stride != 0 {
			continue
		}
		frame.Index = s.kept
		s.kept++
		return frame, nil
	}
}

func (s *sampledSource) Close() error {
	return s.src.Close()
}
