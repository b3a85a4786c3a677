package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/fiapx/fiapx-analysis-service/internal/domain/entity"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/port"
	"github.com/fiapx/fiapx-analysis-service/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	// Stride keeps every Nth decoded frame. 0 or 1 is full-rate.
	Stride int
	// Workers bounds concurrent frame analysis. 0 or 1 is sequential.
	Workers int
	// MaxFrames stops the pass after that many processed frames. 0 is unlimited.
	MaxFrames int
	// Timeout is a wall-clock budget checked at frame boundaries. 0 is unlimited.
	Timeout time.Duration
	// Strategy labels region metrics.
	Strategy string
}

// Analyzer drives a frame source to exhaustion and turns every frame into a
// FrameEvent: detect regions, OCR them, assemble.
type Analyzer struct {
	opener    port.FrameSourceOpener
	detector  port.RegionDetector
	extractor *TextExtractor
	cfg       Config
	logger    *zap.Logger

	mu     sync.Mutex
	state  State
	active int
}

func NewAnalyzer(
	opener port.FrameSourceOpener,
	detector port.RegionDetector,
	extractor *TextExtractor,
	cfg Config,
	logger *zap.Logger,
) *Analyzer {
	if cfg.Strategy == "" {
		cfg.Strategy = "edge"
	}
	return &Analyzer{
		opener:    opener,
		detector:  detector,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger,
	}
}

// State reports the last lifecycle transition made by any pass. An Analyzer
// shared by several goroutines runs concurrent passes, so a Closed state only
// means no pass is running when Active is also 0.
func (a *Analyzer) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Active counts passes that have started and not yet reached Closed.
func (a *Analyzer) Active() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

func (a *Analyzer) begin() {
	a.mu.Lock()
	a.active++
	a.state = StateIdle
	a.mu.Unlock()
}

func (a *Analyzer) finish() {
	a.mu.Lock()
	a.active--
	a.state = StateClosed
	a.mu.Unlock()
}

func (a *Analyzer) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

type pass struct {
	outputs   []frameOutput
	decodeErr error
}

type frameOutput struct {
	index     int
	timestamp time.Duration
	regions   []entity.Region
	texts     []entity.DetectedText
}

// Analyze processes the whole video before returning. A decode error mid-stream
// ends the pass early and is reported in the result's DecodeError; a source
// that cannot be opened or a cancelled context fails the call.
func (a *Analyzer) Analyze(ctx context.Context, videoPath string) (*entity.AnalysisResult, error) {
	ctx, span := otel.Tracer("analysis").Start(ctx, "Analyzer.Analyze",
		trace.WithAttributes(
			attribute.Int("analysis.workers", a.cfg.Workers),
			attribute.Int("analysis.stride", a.cfg.Stride),
			attribute.String("analysis.strategy", a.cfg.Strategy),
		),
	)
	defer span.End()

	a.begin()
	start := time.Now()
	log := a.logger.With(zap.String("video", videoPath))

	src, err := a.opener.Open(ctx, videoPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open source")
		a.finish()
		return nil, err
	}
	a.setState(StateReading)

	src = Sample(src, a.cfg.Stride)
	defer func() {
		if cerr := src.Close(); cerr != nil {
			log.Warn("failed to release frame source", zap.Error(cerr))
		}
		a.finish()
	}()

	var p pass
	if a.cfg.Workers > 1 {
		p, err = a.runParallel(ctx, src, start)
	} else {
		p, err = a.runSequential(ctx, src, start)
	}
	a.setState(StateDrained)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis aborted")
		return nil, err
	}

	asm := NewEventAssembler()
	for _, out := range p.outputs {
		asm.Append(out.timestamp, out.regions, out.texts)
	}
	result := asm.Result()

	if p.decodeErr != nil {
		metrics.DecodeErrorsTotal.Inc()
		result.DecodeError = p.decodeErr.Error()
		log.Warn("decode error, returning frames analyzed so far",
			zap.Int("frames", result.TotalFrames),
			zap.Error(p.decodeErr),
		)
	}

	span.SetAttributes(
		attribute.Int("analysis.total_frames", result.TotalFrames),
		attribute.Int("analysis.regions", result.RegionCount()),
		attribute.Int("analysis.texts", result.TextCount()),
	)
	log.Info("video analyzed",
		zap.Int("total_frames", result.TotalFrames),
		zap.Int("regions", result.RegionCount()),
		zap.Int("texts", result.TextCount()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (a *Analyzer) runSequential(ctx context.Context, src port.FrameSource, start time.Time) (pass, error) {
	var p pass
	for {
		if err := ctx.Err(); err != nil {
			return pass{}, err
		}
		if a.budgetExhausted(len(p.outputs), start) {
			break
		}

		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			p.decodeErr = decodeError(err)
			break
		}

		a.setState(StateProcessing)
		out, err := a.processFrame(ctx, frame)
		if err != nil {
			return pass{}, err
		}
		p.outputs = append(p.outputs, out)
	}
	return p, nil
}

// runParallel keeps the source on this goroutine and fans frames out to a
// bounded worker group. Outputs are merged by frame index.
func (a *Analyzer) runParallel(ctx context.Context, src port.FrameSource, start time.Time) (pass, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)

	var mu sync.Mutex
	var p pass
	dispatched := 0

	for gctx.Err() == nil {
		if a.budgetExhausted(dispatched, start) {
			break
		}

		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			p.decodeErr = decodeError(err)
			break
		}

		a.setState(StateProcessing)
		dispatched++
		g.Go(func() error {
			out, err := a.processFrame(gctx, frame)
			if err != nil {
				return err
			}
			mu.Lock()
			p.outputs = append(p.outputs, out)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return pass{}, err
	}
	if err := ctx.Err(); err != nil {
		return pass{}, err
	}

	sort.Slice(p.outputs, func(i, j int) bool { return p.outputs[i].index < p.outputs[j].index })
	return p, nil
}

func (a *Analyzer) processFrame(ctx context.Context, frame entity.RawFrame) (frameOutput, error) {
	start := time.Now()
	out := frameOutput{index: frame.Index, timestamp: frame.Timestamp}

	regions, err := a.detector.Detect(frame)
	if err != nil {
		a.logger.Warn("region detection failed, emitting empty event",
			zap.Int("frame", frame.Index),
			zap.Error(err),
		)
		regions = nil
	}
	out.regions = regions
	out.texts = a.extractor.Extract(ctx, frame, regions)
	if err := ctx.Err(); err != nil {
		return frameOutput{}, err
	}

	metrics.FramesAnalyzedTotal.Inc()
	metrics.RegionsDetectedTotal.WithLabelValues(a.cfg.Strategy).Add(float64(len(regions)))
	metrics.FrameAnalysisDuration.Observe(time.Since(start).Seconds())

	a.logger.Debug("frame analyzed",
		zap.Int("frame", frame.Index),
		zap.Int("regions", len(out.regions)),
		zap.Int("texts", len(out.texts)),
	)
	return out, nil
}

func (a *Analyzer) budgetExhausted(processed int, start time.Time) bool {
	if a.cfg.MaxFrames > 0 && processed >= a.cfg.MaxFrames {
		a.logger.Info("frame budget reached, draining", zap.Int("max_frames", a.cfg.MaxFrames))
		return true
	}
	if a.cfg.Timeout > 0 && time.Since(start) >= a.cfg.Timeout {
		a.logger.Info("time budget reached, draining", zap.Duration("timeout", a.cfg.Timeout))
		return true
	}
	return false
}

func decodeError(err error) error {
	if errors.Is(err, entity.ErrDecode) {
		return err
	}
	return fmt.Errorf("%w: %w", entity.ErrDecode, err)
}
