package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
	"github.com/TheMerjin/gloss2posefull/internal/domain/port"
	"github.com/TheMerjin/gloss2posefull/internal/infra/config"
	"github.com/TheMerjin/gloss2posefull/internal/infra/email"
	"github.com/TheMerjin/gloss2posefull/internal/infra/ffmpeg"
	"github.com/TheMerjin/gloss2posefull/internal/infra/mapping"
	"github.com/TheMerjin/gloss2posefull/internal/infra/metadata"
	"github.com/TheMerjin/gloss2posefull/internal/infra/metrics"
	miniostorage "github.com/TheMerjin/gloss2posefull/internal/infra/minio"
	"github.com/TheMerjin/gloss2posefull/internal/infra/openpose"
	"github.com/TheMerjin/gloss2posefull/internal/infra/postgres"
	"github.com/TheMerjin/gloss2posefull/internal/infra/tracing"
	"github.com/TheMerjin/gloss2posefull/internal/infra/ytdlp"
	"github.com/TheMerjin/gloss2posefull/internal/usecase"
	"github.com/TheMerjin/gloss2posefull/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	metadataPath := flag.String("metadata", "", "annotation metadata file (overrides METADATA_PATH)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: builder [flags] [run|get]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	mode := flag.Arg(0)
	if mode == "" {
		mode = "run"
	}

	cfg, err := config.Load()
	fatalOnErr(err, "load config")
	if *metadataPath != "" {
		cfg.MetadataPath = *metadataPath
	}

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	for _, dir := range []string{cfg.VideosDir(), cfg.SegmentsDir(), cfg.PosesDir(), cfg.MetadataDir(), cfg.RawDir()} {
		fatalOnErr(os.MkdirAll(dir, 0o755), "create output dirs")
	}

	switch mode {
	case "get":
		runBootstrap(ctx, cfg, log)
	case "run":
		runBuild(ctx, cfg, log)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runBootstrap(ctx context.Context, cfg *config.Config, log *zap.Logger) {
	b := metadata.NewBootstrapper(cfg.RawDir(), cfg.MetadataPath, log)
	n, err := b.Bootstrap(ctx, cfg.AnnotationsURL)
	fatalOnErr(err, "bootstrap annotations")
	log.Info("bootstrap done", zap.Int("records", n))
}

func runBuild(ctx context.Context, cfg *config.Config, log *zap.Logger) {
	log.Info("starting gloss2pose builder", zap.String("metadata", cfg.MetadataPath))

	// Tracing (non-fatal if collector unavailable)
	if cfg.OTLPEndpoint != "" {
		tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
		if err != nil {
			log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
		} else {
			defer tp.Shutdown(ctx)
		}
	}

	// Optional run ledger
	var ledger port.RunLedger
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		fatalOnErr(err, "connect to postgres")
		defer pool.Close()

		if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
			log.Warn("migration warning", zap.Error(err))
		}
		ledger = postgres.NewLedger(pool)
	}

	// Optional dataset archive target
	var archiver port.DatasetArchiver
	if cfg.MinIOEndpoint != "" {
		a, err := miniostorage.NewArchiver(miniostorage.ArchiverConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
			Bucket:    cfg.MinIOBucket,
		})
		fatalOnErr(err, "create minio archiver")
		fatalOnErr(a.EnsureBucket(ctx), "ensure minio bucket")
		archiver = a
	}

	// Optional summary notifier
	var notifier port.CompletionNotifier
	if cfg.SMTPHost != "" && cfg.NotificationTo != "" {
		notifier = email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)
	}

	toolTimeout := time.Duration(cfg.ToolTimeoutSec) * time.Second

	uc := usecase.NewBuildDatasetUseCase(
		metadata.NewLoader(),
		ytdlp.NewFetcher(cfg.YtdlpPath, cfg.VideosDir(), cfg.ResolutionCap, toolTimeout, log),
		ffmpeg.NewTrimmer(cfg.FFmpegPath, cfg.FFprobePath, cfg.SegmentsDir(), toolTimeout, log),
		openpose.NewRunner(cfg.OpenPosePath, cfg.PosesDir(), toolTimeout, log),
		mapping.NewStore(cfg.MetadataDir(), log),
		ledger, archiver, notifier,
		log,
		usecase.BuildDatasetConfig{
			MetadataPath: cfg.MetadataPath,
			NotifyTo:     cfg.NotificationTo,
		},
	)

	metricsSrv := metrics.StartServer(cfg.MetricsPort, log)

	sum, err := uc.Execute(ctx)
	if err != nil {
		log.Error("run aborted", zap.Error(err))
		if sum != nil {
			fmt.Fprintln(os.Stderr, usecase.SummaryReport(sum))
		}
		shutdown(metricsSrv)
		if entity.IsFatal(err) || ctx.Err() == nil {
			os.Exit(1)
		}
		os.Exit(130)
	}

	fmt.Println(usecase.SummaryReport(sum))
	shutdown(metricsSrv)
}

func shutdown(srv interface {
	Shutdown(ctx context.Context) error
}) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
