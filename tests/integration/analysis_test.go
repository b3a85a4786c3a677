package integration

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/fiapx/fiapx-analysis-service/internal/bootstrap"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/entity"
	"github.com/fiapx/fiapx-analysis-service/internal/domain/port"
	"github.com/fiapx/fiapx-analysis-service/internal/infra/config"
	"github.com/fiapx/fiapx-analysis-service/internal/infra/email"
	"github.com/fiapx/fiapx-analysis-service/internal/infra/ffmpeg"
	miniostorage "github.com/fiapx/fiapx-analysis-service/internal/infra/minio"
	"github.com/fiapx/fiapx-analysis-service/internal/infra/postgres"
	"github.com/fiapx/fiapx-analysis-service/internal/infra/rabbitmq"
	"github.com/fiapx/fiapx-analysis-service/internal/usecase"
	"github.com/fiapx/fiapx-analysis-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"go.uber.org/zap"
)

const (
	exchange    = "fiapx.video"
	queue       = "video.analysis"
	statusQueue = "video.analysis.status"
	dlq         = "video.analysis.dlq"
)

type stack struct {
	pool    *pgxpool.Pool
	storage *miniostorage.Storage
	minio   *miniogo.Client
	rmqConn *amqp.Connection
	rmqURL  string
	log     *zap.Logger
}

// startStack brings up postgres, rabbitmq and minio and returns clients for
// all three. Containers are terminated through t.Cleanup.
func startStack(ctx context.Context, t *testing.T) *stack {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("jobs"),
		tcpostgres.WithUsername("job_user"),
		tcpostgres.WithPassword("job_pass"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { pgContainer.Terminate(context.Background()) })

	pgConnStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rmqContainer, err := tcrabbitmq.Run(ctx, "rabbitmq:3.12-management-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { rmqContainer.Terminate(context.Background()) })

	rmqURL, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	minioContainer, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { minioContainer.Terminate(context.Background()) })

	minioEndpoint, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	require.NoError(t, postgres.RunMigrations(pgConnStr, "../../migrations"))

	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:     minioEndpoint,
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		UploadBucket: "uploads",
		ResultBucket: "analyses",
	})
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBuckets(ctx))

	minioClient, err := miniogo.New(minioEndpoint, &miniogo.Options{
		Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
	})
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	rmqConn, err := amqp.Dial(rmqURL)
	require.NoError(t, err)
	t.Cleanup(func() { rmqConn.Close() })

	log, err := logger.New("debug")
	require.NoError(t, err)

	return &stack{
		pool:    pool,
		storage: storage,
		minio:   minioClient,
		rmqConn: rmqConn,
		rmqURL:  rmqURL,
		log:     log,
	}
}

// startWorker wires the use case behind a consumer, the same way cmd/worker
// does, and runs it until the test ends.
func (s *stack) startWorker(ctx context.Context, t *testing.T, analyzer port.VideoAnalyzer) {
	t.Helper()

	pub, err := rabbitmq.NewPublisher(s.rmqConn, exchange)
	require.NoError(t, err)

	uc := usecase.NewAnalyzeVideoUseCase(
		postgres.NewJobRepository(s.pool), s.storage, analyzer, ffmpeg.NewProber(""),
		rabbitmq.NewStatusPublisher(pub, statusQueue),
		rabbitmq.NewDLQPublisher(pub, dlq),
		email.NewSMTPNotifier("localhost", 1025, "test@test.local", s.log),
		s.log,
		usecase.AnalyzeVideoConfig{TempDir: t.TempDir(), MaxRetries: 3},
	)

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         s.rmqURL,
		Queue:       queue,
		Exchange:    exchange,
		DLQ:         dlq,
		StatusQueue: statusQueue,
		Prefetch:    1,
		WorkerCount: 1,
		BaseDelayMs: 100,
	}, uc.Execute, s.log)
	require.NoError(t, err)
	t.Cleanup(func() { consumer.Close() })

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	t.Cleanup(consumerCancel)
	go consumer.Start(consumerCtx)

	// Give consumer time to start
	time.Sleep(500 * time.Millisecond)
}

func (s *stack) publish(ctx context.Context, t *testing.T, body []byte) {
	t.Helper()
	ch, err := s.rmqConn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	err = ch.PublishWithContext(ctx, exchange, queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	require.NoError(t, err)
}

func TestAnalyzeVideoEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testVideoPath := filepath.Join("..", "testdata", "test.mp4")
	if _, err := os.Stat(testVideoPath); os.IsNotExist(err) {
		t.Skip("test video not found at tests/testdata/test.mp4 - generate it with: ffmpeg -f lavfi -i testsrc=duration=2:size=320x240:rate=5 -c:v libx264 -pix_fmt yuv420p tests/testdata/test.mp4")
	}
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract executable not found in PATH")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s := startStack(ctx, t)

	cfg, err := config.Load()
	require.NoError(t, err)
	analyzer, cleanup, err := bootstrap.NewAnalyzer(cfg, s.log)
	require.NoError(t, err)
	defer cleanup()

	s.startWorker(ctx, t, analyzer)

	videoKey := "testuser/test.mp4"
	_, err = s.minio.FPutObject(ctx, "uploads", videoKey, testVideoPath, miniogo.PutObjectOptions{
		ContentType: "video/mp4",
	})
	require.NoError(t, err)

	statusCh, err := s.rmqConn.Channel()
	require.NoError(t, err)
	defer statusCh.Close()
	statusMsgs, err := statusCh.Consume(statusQueue, "", true, false, false, false, nil)
	require.NoError(t, err)

	jobID := uuid.New()
	videoInfo, _ := os.Stat(testVideoPath)
	body, err := json.Marshal(entity.VideoAnalysisMessage{
		JobID:     jobID,
		UserID:    "testuser",
		VideoKey:  videoKey,
		FileSize:  videoInfo.Size(),
		UserEmail: "test@test.local",
	})
	require.NoError(t, err)
	s.publish(ctx, t, body)

	// PROCESSING is announced first; wait for the terminal status.
	var status entity.AnalysisStatusMessage
	deadline := time.After(2 * time.Minute)
	for status.Status != entity.JobStatusCompleted {
		select {
		case delivery := <-statusMsgs:
			require.NoError(t, json.Unmarshal(delivery.Body, &status))
			require.NotEqual(t, entity.JobStatusFailed, status.Status, status.ErrorMessage)
		case <-deadline:
			t.Fatal("timeout waiting for COMPLETED status")
		}
	}

	assert.Equal(t, jobID, status.JobID)
	assert.Greater(t, status.TotalFrames, 0)
	require.NotEmpty(t, status.ResultKey)

	obj, err := s.minio.GetObject(ctx, "analyses", status.ResultKey, miniogo.GetObjectOptions{})
	require.NoError(t, err)
	defer obj.Close()

	var result entity.AnalysisResult
	require.NoError(t, json.NewDecoder(obj).Decode(&result))
	assert.Equal(t, status.TotalFrames, result.TotalFrames)
	require.Len(t, result.Events, result.TotalFrames)
	for i, ev := range result.Events {
		assert.Equal(t, i, ev.Frame)
	}

	var dbStatus string
	var dbFrames int
	err = s.pool.QueryRow(ctx,
		"SELECT status, total_frames FROM analysis_jobs WHERE id=$1", jobID,
	).Scan(&dbStatus, &dbFrames)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", dbStatus)
	assert.Equal(t, result.TotalFrames, dbFrames)

	t.Logf("analyzed %d frames, %d regions, result at %s", result.TotalFrames, result.RegionCount(), status.ResultKey)
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(context.Context, string) (*entity.AnalysisResult, error) {
	return nil, entity.ErrSourceOpen
}

func TestAnalyzeVideoMalformedMessage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s := startStack(ctx, t)
	s.startWorker(ctx, t, failingAnalyzer{})

	s.publish(ctx, t, []byte(`{invalid json`))

	// Wait and verify message landed in DLQ
	time.Sleep(2 * time.Second)

	dlqCh, err := s.rmqConn.Channel()
	require.NoError(t, err)
	defer dlqCh.Close()

	msg, ok, err := dlqCh.Get(dlq, true)
	require.NoError(t, err)
	assert.True(t, ok, "malformed message should be in DLQ")
	assert.Equal(t, `{invalid json`, string(msg.Body))
	assert.Contains(t, msg.Headers["x-dlq-reason"], "unmarshal_error")
}
