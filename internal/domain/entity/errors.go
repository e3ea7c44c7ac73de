package entity

import "errors"

// Pipeline error taxonomy. Per-record errors are caught at the driver
// boundary, recorded and skipped; fatal errors abort the whole run.
var (
	ErrMalformedMetadata = errors.New("malformed metadata")
	ErrDownload          = errors.New("video download failed")
	ErrVideoNotFound     = errors.New("remote video unavailable")
	ErrQuota             = errors.New("remote source throttled request")
	ErrInvalidRange      = errors.New("invalid time range")
	ErrExtraction        = errors.New("segment extraction failed")
	ErrPoseToolMissing   = errors.New("pose tool not configured or not executable")
	ErrPoseExtraction    = errors.New("pose extraction failed")
	ErrPersistence       = errors.New("mapping persistence failed")
)

// IsFatal reports whether err is an environment or output-integrity
// problem that would affect every record.
func IsFatal(err error) bool {
	return errors.Is(err, ErrMalformedMetadata) ||
		errors.Is(err, ErrPoseToolMissing) ||
		errors.Is(err, ErrPersistence)
}
