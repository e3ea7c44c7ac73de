package port

import "context"

// DatasetArchiver publishes the finalized mapping artifact to shared
// storage. Optional: the driver tolerates a nil archiver.
type DatasetArchiver interface {
	// PublishMapping zips the given files and uploads the archive
	// under the run's key, returning the object key.
	PublishMapping(ctx context.Context, runID string, filePaths []string) (string, error)
}
