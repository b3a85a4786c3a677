package libtesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/entity"
	"github.com/otiai10/gosseract/v2"
)

// Engine keeps one in-process tesseract client. The client is not safe for
// concurrent use, so calls are serialized.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

func NewEngine(language string, psm int) (*Engine, error) {
	client := gosseract.NewClient()
	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			client.Close()
			return nil, fmt.Errorf("set ocr language: %w", err)
		}
	}
	if psm > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
			client.Close()
			return nil, fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	return &Engine{client: client}, nil
}

func (e *Engine) Recognize(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("%w: encode crop: %w", entity.ErrOCREngine, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("%w: set image: %w", entity.ErrOCREngine, err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrOCREngine, err)
	}
	return text, nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}
