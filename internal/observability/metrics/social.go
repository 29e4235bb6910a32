package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FollowChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_follow_changes_total",
			Help: "Total number of follow relationship changes",
		},
		[]string{"action"},
	)

	PostsChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_post_changes_total",
			Help: "Total number of admin post and file changes",
		},
		[]string{"action"},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_uploads_total",
			Help: "Total number of admin file uploads by result",
		},
		[]string{"result"},
	)

	UploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "social_upload_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	LastSeenQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "social_last_seen_queue_size",
			Help: "Current size of the last-seen update queue",
		},
	)

	LastSeenDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "social_last_seen_dropped_total",
			Help: "Total number of last-seen updates dropped because the queue was full",
		},
	)
)
