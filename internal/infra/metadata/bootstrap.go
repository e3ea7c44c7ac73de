package metadata

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/TheMerjin/gloss2posefull/internal/domain/entity"
	"go.uber.org/zap"
)

// Bootstrapper downloads the raw annotation archive and normalizes it
// into the pipeline's metadata format. Entries with a missing word or a
// non-positive time range are dropped rather than failing the whole
// bootstrap; the raw corpus is known to contain some.
type Bootstrapper struct {
	client       *http.Client
	rawDir       string
	metadataPath string
	logger       *zap.Logger
}

func NewBootstrapper(rawDir, metadataPath string, logger *zap.Logger) *Bootstrapper {
	return &Bootstrapper{
		client:       &http.Client{},
		rawDir:       rawDir,
		metadataPath: metadataPath,
		logger:       logger,
	}
}

// Bootstrap fetches the archive at url, extracts annotations.json and
// writes the normalized metadata file. Returns the number of records
// kept.
func (b *Bootstrapper) Bootstrap(ctx context.Context, url string) (int, error) {
	if err := os.MkdirAll(b.rawDir, 0o755); err != nil {
		return 0, fmt.Errorf("create raw dir: %w", err)
	}

	zipPath := filepath.Join(b.rawDir, "annotations.zip")
	if err := b.download(ctx, url, zipPath); err != nil {
		return 0, err
	}
	defer os.Remove(zipPath)

	raw, err := readAnnotationsFromZip(zipPath)
	if err != nil {
		return 0, err
	}

	records := normalize(raw)
	dropped := len(raw) - len(records)
	if dropped > 0 {
		b.logger.Warn("dropped invalid raw annotations", zap.Int("dropped", dropped))
	}

	if err := os.MkdirAll(filepath.Dir(b.metadataPath), 0o755); err != nil {
		return 0, fmt.Errorf("create metadata dir: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(b.metadataPath, data, 0o644); err != nil {
		return 0, fmt.Errorf("write metadata: %w", err)
	}

	b.logger.Info("annotation bootstrap complete",
		zap.Int("records", len(records)),
		zap.String("path", b.metadataPath),
	)
	return len(records), nil
}

func (b *Bootstrapper) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}

func readAnnotationsFromZip(zipPath string) ([]entity.AnnotationRecord, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if filepath.Base(f.Name) != "annotations.json" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in archive: %w", f.Name, err)
		}
		defer rc.Close()

		var raw []entity.AnnotationRecord
		if err := json.NewDecoder(rc).Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.Name, err)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("annotations.json not found in archive")
}

func normalize(raw []entity.AnnotationRecord) []entity.AnnotationRecord {
	records := make([]entity.AnnotationRecord, 0, len(raw))
	for _, r := range raw {
		if r.VideoID == "" || strings.TrimSpace(r.Word) == "" {
			continue
		}
		if r.StartTime >= r.EndTime {
			continue
		}
		records = append(records, r)
	}
	return records
}
