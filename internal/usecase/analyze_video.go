package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/entity"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/port"
	"github.com/fiapx/fiapx-analysis-service/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type AnalyzeVideoUseCase struct {
	repo      port.JobRepository
	storage   port.VideoStorage
	analyzer  port.VideoAnalyzer
	prober    port.VideoProber
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	tempDir   string
	maxRetry  int
}

type AnalyzeVideoConfig struct {
	TempDir    string
	MaxRetries int
}

func NewAnalyzeVideoUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	analyzer port.VideoAnalyzer,
	prober port.VideoProber,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg AnalyzeVideoConfig,
) *AnalyzeVideoUseCase {
	return &AnalyzeVideoUseCase{
		repo:      repo,
		storage:   storage,
		analyzer:  analyzer,
		prober:    prober,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		tempDir:   cfg.TempDir,
		maxRetry:  cfg.MaxRetries,
	}
}

// Execute handles one delivery. A nil return acks the message; an error asks
// the consumer to requeue it.
func (uc *AnalyzeVideoUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "AnalyzeVideoUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.VideoAnalysisMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()
		return nil
	}
	if msg.VideoKey == "" {
		uc.logger.Error("message without video key", zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "invalid_message: missing video_key")
		metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if errors.Is(err, entity.ErrJobNotFound) {
		job = entity.NewJob(msg.UserID, msg.VideoKey, msg.FileSize, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	} else if err != nil {
		log.Error("failed to load job record", zap.Error(err))
		return fmt.Errorf("load job: %w", err)
	}

	if job.Status == entity.JobStatusCompleted {
		log.Info("job already completed, acking duplicate delivery")
		return nil
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}
	uc.publishStatus(ctx, job, log)

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.analysisPipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.JobProcessingDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())
	return nil
}

func (uc *AnalyzeVideoUseCase) analysisPipeline(
	ctx context.Context,
	job *entity.Job,
	msg entity.VideoAnalysisMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	// The local copy of the recording never outlives this pass
	workDir := filepath.Join(uc.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download recording from MinIO
	dlStart := time.Now()
	ctxDl, spanDl := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "input"+filepath.Ext(msg.VideoKey))
	if err := uc.storage.DownloadVideo(ctxDl, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_video: "+err.Error(), log)
	}
	spanDl.End()
	metrics.JobProcessingDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())
	if info, err := os.Stat(videoPath); err == nil {
		log.Info("recording downloaded", zap.String("size", humanize.Bytes(uint64(info.Size()))))
	}

	duration, err := uc.prober.Duration(ctx, videoPath)
	if err != nil {
		log.Warn("could not get video duration", zap.Error(err))
	}

	// Region detection and selective OCR
	anStart := time.Now()
	ctxAn, spanAn := tracer.Start(ctx, "analyze_video")
	result, err := uc.analyzer.Analyze(ctxAn, videoPath)
	spanAn.End()
	if err != nil {
		log.Error("video analysis failed", zap.Error(err))
		if errors.Is(err, entity.ErrSourceOpen) {
			return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "analyze_video: "+err.Error())
		}
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "analyze_video: "+err.Error(), log)
	}
	metrics.JobProcessingDuration.WithLabelValues("analyze").Observe(time.Since(anStart).Seconds())

	// Upload timeline JSON to MinIO
	upStart := time.Now()
	ctxUp, spanUp := tracer.Start(ctx, "upload_result")
	resultKey := fmt.Sprintf("%s/analysis_%s.json", msg.UserID, job.ID.String())
	body, err := json.Marshal(result)
	if err != nil {
		spanUp.End()
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "encode_result: "+err.Error())
	}
	if err := uc.storage.UploadResult(ctxUp, resultKey, bytes.NewReader(body), int64(len(body))); err != nil {
		spanUp.End()
		log.Error("result upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_result: "+err.Error(), log)
	}
	spanUp.End()
	metrics.JobProcessingDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	// Mark completed
	job.MarkCompleted(resultKey, result, duration)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	status := "completed"
	if job.Partial {
		status = "partial"
	}
	metrics.JobsProcessedTotal.WithLabelValues(status).Inc()

	log.Info("job completed successfully",
		zap.Int("total_frames", result.TotalFrames),
		zap.Int("regions", job.RegionCount),
		zap.Int("texts", job.TextCount),
		zap.Bool("partial", job.Partial),
		zap.Float64("duration_secs", duration),
		zap.String("result_key", resultKey),
	)

	return nil
}

func (uc *AnalyzeVideoUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.VideoAnalysisMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *AnalyzeVideoUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.VideoAnalysisMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoKey, errMsg)
	}

	return nil
}

func (uc *AnalyzeVideoUseCase) publishStatus(ctx context.Context, job *entity.Job, log *zap.Logger) {
	statusMsg := entity.AnalysisStatusMessage{
		JobID:        job.ID,
		UserID:       job.UserID,
		Status:       job.Status,
		VideoKey:     job.VideoKey,
		ResultKey:    job.ResultKey,
		TotalFrames:  job.TotalFrames,
		RegionCount:  job.RegionCount,
		TextCount:    job.TextCount,
		Duration:     job.VideoDuration,
		Partial:      job.Partial,
		ErrorMessage: job.ErrorMessage,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
