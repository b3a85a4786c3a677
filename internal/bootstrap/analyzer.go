package bootstrap

import (
	"fmt"

	"github.com/fiapx/fiapx-analysis-service/internal/analysis"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/port"
	"github.com/fiapx/fiapx-analysis-service/internal/infra/config"
	"github.com/fiapx/fiapx-analysis-service/internal/infra/ffmpeg"
	"github.com/fiapx/fiapx-analysis-service/internal/infra/libtesseract"
	"github.com/fiapx/fiapx-analysis-service/internal/infra/opencv"
	"github.com/fiapx/fiapx-analysis-service/internal/infra/tesseract"
	"go.uber.org/zap"
)

// NewAnalyzer wires the frame decoder, region strategy and OCR engine selected
// by cfg. The returned cleanup releases engine and template resources.
func NewAnalyzer(cfg *config.Config, log *zap.Logger) (*analysis.Analyzer, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn("cleanup failed", zap.Error(err))
			}
		}
	}

	var opener port.FrameSourceOpener
	switch cfg.FrameDecoder {
	case "ffmpeg":
		opener = ffmpeg.NewFrameSourceOpener(log)
	default:
		opener = opencv.NewFrameSourceOpener(log)
	}

	detector, err := opencv.NewRegionDetector(cfg.Detection())
	if err != nil {
		return nil, cleanup, fmt.Errorf("build region detector: %w", err)
	}
	if c, ok := detector.(interface{ Close() error }); ok {
		closers = append(closers, c.Close)
	}

	var engine port.TextRecognizer
	switch cfg.OCREngine {
	case "gosseract":
		lib, err := libtesseract.NewEngine(cfg.OCRLanguage, cfg.OCRPSM)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("build ocr engine: %w", err)
		}
		closers = append(closers, lib.Close)
		engine = lib
	default:
		engine = tesseract.NewEngine(tesseract.EngineConfig{
			Path:     cfg.TesseractPath,
			Language: cfg.OCRLanguage,
			PSM:      cfg.OCRPSM,
		})
	}

	log.Info("analyzer configured",
		zap.String("decoder", cfg.FrameDecoder),
		zap.String("strategy", cfg.DetectorStrategy),
		zap.String("ocr_engine", cfg.OCREngine),
		zap.Int("stride", cfg.Analysis().Stride),
		zap.Int("workers", cfg.AnalysisWorkers),
	)

	extractor := analysis.NewTextExtractor(engine, cfg.TextExtraction(), log)
	return analysis.NewAnalyzer(opener, detector, extractor, cfg.Analysis(), log), cleanup, nil
}
