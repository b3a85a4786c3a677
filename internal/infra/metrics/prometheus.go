package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_analysis_jobs_processed_total",
		Help: "Total number of analysis jobs processed, by status",
	}, []string{"status"})

	JobProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fiapx_analysis_job_duration_seconds",
		Help:    "Duration of video analysis job stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
	}, []string{"stage"})

	FramesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fiapx_frames_analyzed_total",
		Help: "Total number of frames run through region detection",
	})

	FrameAnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fiapx_frame_analysis_duration_seconds",
		Help:    "Per-frame detection plus OCR duration",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	RegionsDetectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_regions_detected_total",
		Help: "Candidate regions kept after filtering, by strategy",
	}, []string{"strategy"})

	OCRCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_ocr_calls_total",
		Help: "OCR invocations by outcome (text, empty, error)",
	}, []string{"outcome"})

	OCRDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fiapx_ocr_duration_seconds",
		Help:    "Latency of a single region OCR call",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	DecodeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fiapx_decode_errors_total",
		Help: "Analysis passes that ended early on a decode error",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fiapx_analysis_active_workers",
		Help: "Number of currently active workers processing jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_analysis_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
