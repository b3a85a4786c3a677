package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fiapx/fiapx-analysis-service/internal/bootstrap"
	"github.com/fiapx/fiapx-analysis-service/internal/infra/config"
	"github.com/fiapx/fiapx-analysis-service/pkg/logger"
	"go.uber.org/zap"
)

// analyze prints the interaction timeline of a local screen recording as JSON.
func main() {
	pretty := flag.Bool("pretty", false, "indent JSON output")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-pretty] <video>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(flag.Arg(0), *pretty))
}

// run owns every deferred release so that main can exit with its code.
func run(videoPath string, pretty bool) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config: "+err.Error())
		return 1
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger: "+err.Error())
		return 1
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analyzer, cleanup, err := bootstrap.NewAnalyzer(cfg, log)
	defer cleanup()
	if err != nil {
		log.Error("build analyzer", zap.Error(err))
		return 1
	}

	result, err := analyzer.Analyze(ctx, videoPath)
	if err != nil {
		log.Error("analysis failed", zap.Error(err))
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		log.Error("write result", zap.Error(err))
		return 1
	}
	return 0
}
