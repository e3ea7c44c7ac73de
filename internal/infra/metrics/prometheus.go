package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gloss2pose_records_total",
		Help: "Annotation records handled, by outcome",
	}, []string{"outcome"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gloss2pose_stage_duration_seconds",
		Help:    "Duration of per-record pipeline stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	VideosDownloadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gloss2pose_videos_downloaded_total",
		Help: "Source videos fetched from the remote source",
	})

	VideoCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gloss2pose_video_cache_hits_total",
		Help: "Fetch calls satisfied from the local video cache",
	})

	PoseFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gloss2pose_pose_frames_total",
		Help: "Per-frame keypoint files produced across all segments",
	})
)
