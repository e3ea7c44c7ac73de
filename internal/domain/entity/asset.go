package entity

// VideoAsset is a locally cached source video. Created on first
// successful fetch, reused across all records sharing the video ID,
// never mutated afterwards.
type VideoAsset struct {
	VideoID       string
	LocalPath     string
	ResolutionCap int
}

// SegmentAsset is the trimmed sub-clip for one annotation record.
type SegmentAsset struct {
	VideoID   string
	Word      string
	StartTime float64
	EndTime   float64
	LocalPath string
}

// PoseResult is the per-frame keypoint output for one segment,
// immutable once written. FramePaths is ordered by frame number.
type PoseResult struct {
	Segment    SegmentAsset
	OutputDir  string
	FramePaths []string
}

func (p PoseResult) FrameCount() int { return len(p.FramePaths) }
