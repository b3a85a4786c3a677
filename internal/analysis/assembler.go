package analysis

import (
	"time"

	"github.com/fiapx/fiapx-analysis-service/internal/domain/entity"
)

// EventAssembler accumulates one FrameEvent per processed frame in decode order.
type EventAssembler struct {
	events []entity.FrameEvent
}

func NewEventAssembler() *EventAssembler {
	return &EventAssembler{}
}

// Append builds the event for the next frame. Frame numbering starts at 0.
func (a *EventAssembler) Append(ts time.Duration, regions []entity.Region, texts []entity.DetectedText) entity.FrameEvent {
	if regions == nil {
		regions = []entity.Region{}
	}
	if texts == nil {
		texts = []entity.DetectedText{}
	}
	ev := entity.FrameEvent{
		Frame:            len(a.events),
		TimestampSeconds: ts.Seconds(),
		ClickableRegions: regions,
		DetectedText:     texts,
	}
	a.events = append(a.events, ev)
	return ev
}

func (a *EventAssembler) Len() int {
	return len(a.events)
}

func (a *EventAssembler) Result() *entity.AnalysisResult {
	events := a.events
	if events == nil {
		events = []entity.FrameEvent{}
	}
	return &entity.AnalysisResult{
		TotalFrames: len(events),
		Events:      events,
	}
}
