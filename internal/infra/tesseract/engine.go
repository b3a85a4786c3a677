package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/entity"
)

type EngineConfig struct {
	// Path is the tesseract executable, resolved through PATH when bare.
	Path     string
	Language string
	PSM      int
}

// Engine runs the tesseract CLI once per crop, feeding PNG on stdin and
// reading recognized text from stdout.
type Engine struct {
	cfg EngineConfig
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Path == "" {
		cfg.Path = "tesseract"
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Recognize(ctx context.Context, img image.Image) (string, error) {
	var input bytes.Buffer
	if err := imaging.Encode(&input, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("%w: encode crop: %w", entity.ErrOCREngine, err)
	}

	cmd := exec.CommandContext(ctx, e.cfg.Path, e.args()...)
	cmd.Stdin = &input
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s: %w, output: %s",
			entity.ErrOCREngine, e.cfg.Path, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (e *Engine) args() []string {
	args := []string{"stdin", "stdout"}
	if e.cfg.Language != "" {
		args = append(args, "-l", e.cfg.Language)
	}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	return args
}
