package entity

import "errors"

var (
	// ErrSourceOpen is returned when a video cannot be opened for decoding.
	ErrSourceOpen = errors.New("source open error")
	// ErrDecode marks a failure while decoding a frame mid-stream.
	ErrDecode = errors.New("decode error")
	// ErrOCREngine marks a failed text recognition call.
	ErrOCREngine = errors.New("ocr engine error")

	ErrJobNotFound = errors.New("job not found")
)
