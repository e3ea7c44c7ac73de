package config

import (
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	OutputRoot    string `env:"OUTPUT_ROOT"     envDefault:"data/dataset"`
	MetadataPath  string `env:"METADATA_PATH"   envDefault:""`
	ResolutionCap int    `env:"RESOLUTION_CAP"  envDefault:"720"`

	YtdlpPath    string `env:"YTDLP_PATH"    envDefault:"yt-dlp"`
	FFmpegPath   string `env:"FFMPEG_PATH"   envDefault:"ffmpeg"`
	FFprobePath  string `env:"FFPROBE_PATH"  envDefault:"ffprobe"`
	OpenPosePath string `env:"OPENPOSE_PATH" envDefault:""`

	ToolTimeoutSec int `env:"TOOL_TIMEOUT_SEC" envDefault:"600"`

	AnnotationsURL string `env:"ANNOTATIONS_URL" envDefault:"https://github.com/dxli94/WLASL/raw/master/WLASL.zip"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:""`

	MinIOEndpoint  string `env:"MINIO_ENDPOINT"   envDefault:""`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY" envDefault:"minioadmin"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY" envDefault:"minioadmin"`
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL"    envDefault:"false"`
	MinIOBucket    string `env:"MINIO_BUCKET"     envDefault:"pose-datasets"`

	SMTPHost       string `env:"SMTP_HOST"       envDefault:""`
	SMTPPort       int    `env:"SMTP_PORT"       envDefault:"1025"`
	SMTPFrom       string `env:"SMTP_FROM"       envDefault:"noreply@gloss2pose.local"`
	NotificationTo string `env:"NOTIFICATION_TO" envDefault:""`

	MetricsPort  int    `env:"METRICS_PORT"  envDefault:"8084"`
	OTLPEndpoint string `env:"OTLP_ENDPOINT" envDefault:""`
	LogLevel     string `env:"LOG_LEVEL"     envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.MetadataPath == "" {
		cfg.MetadataPath = filepath.Join(cfg.OutputRoot, "metadata", "annotations.json")
	}
	return cfg, nil
}

// Derived directory layout under the output root.

func (c *Config) VideosDir() string   { return filepath.Join(c.OutputRoot, "videos") }
func (c *Config) SegmentsDir() string { return filepath.Join(c.OutputRoot, "videos", "segments") }
func (c *Config) PosesDir() string    { return filepath.Join(c.OutputRoot, "poses") }
func (c *Config) MetadataDir() string { return filepath.Join(c.OutputRoot, "metadata") }
func (c *Config) RawDir() string      { return filepath.Join(c.OutputRoot, "raw") }
