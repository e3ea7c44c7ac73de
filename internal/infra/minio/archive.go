package minio

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archiver uploads the finalized mapping artifacts to object storage so
// downstream training jobs can pull the dataset without filesystem
// access to the builder host.
type Archiver struct {
	client *miniogo.Client
	bucket string
}

type ArchiverConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

func NewArchiver(cfg ArchiverConfig) (*Archiver, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Archiver{client: client, bucket: cfg.Bucket}, nil
}

func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", a.bucket, err)
		}
	}
	return nil
}

// PublishMapping zips the given files and uploads them under the run's
// key. Returns the object key of the uploaded archive.
func (a *Archiver) PublishMapping(ctx context.Context, runID string, filePaths []string) (string, error) {
	tmp, err := os.CreateTemp("", "mapping-*.zip")
	if err != nil {
		return "", fmt.Errorf("create temp archive: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := writeZip(ctx, tmp, filePaths); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close archive: %w", err)
	}

	key := fmt.Sprintf("runs/%s/mapping.zip", runID)
	_, err = a.client.FPutObject(ctx, a.bucket, key, tmpPath, miniogo.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return "", fmt.Errorf("upload mapping archive: %w", err)
	}
	return key, nil
}

func writeZip(ctx context.Context, w io.Writer, filePaths []string) error {
	zw := zip.NewWriter(w)
	for _, fp := range filePaths {
		select {
		case <-ctx.Done():
			zw.Close()
			return ctx.Err()
		default:
		}
		if err := addFileToZip(zw, fp); err != nil {
			zw.Close()
			return fmt.Errorf("add %s to archive: %w", fp, err)
		}
	}
	return zw.Close()
}

func addFileToZip(zw *zip.Writer, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(filename)
	header.Method = zip.Deflate

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, file)
	return err
}
