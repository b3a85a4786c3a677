package entity

import "github.com/google/uuid"

// VideoAnalysisMessage is the inbound message from the video.analysis queue.
type VideoAnalysisMessage struct {
	JobID     uuid.UUID `json:"job_id"`
	UserID    string    `json:"user_id"`
	VideoKey  string    `json:"video_key"`
	FileSize  int64     `json:"file_size"`
	UserEmail string    `json:"user_email"`
}

// AnalysisStatusMessage is the outbound message published to the video.analysis.status queue.
type AnalysisStatusMessage struct {
	JobID        uuid.UUID `json:"job_id"`
	UserID       string    `json:"user_id"`
	Status       JobStatus `json:"status"`
	VideoKey     string    `json:"video_key"`
	ResultKey    string    `json:"result_key,omitempty"`
	TotalFrames  int       `json:"total_frames,omitempty"`
	RegionCount  int       `json:"region_count,omitempty"`
	TextCount    int       `json:"text_count,omitempty"`
	Duration     float64   `json:"duration_seconds,omitempty"`
	Partial      bool      `json:"partial,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Attempt      int       `json:"attempt"`
	MaxAttempts  int       `json:"max_attempts"`
}
