package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"picam/video"
)

var (
	actionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "picam",
		Name:      "action_duration_seconds",
		Help:      "Time spent recording and sending one clip.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
	captureFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "picam",
		Name:      "capture_failures_total",
		Help:      "Capture runs that exited with an error. The clip is sent regardless.",
	})
	emailFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "picam",
		Name:      "email_failures_total",
		Help:      "Clips that could not be sent.",
	})
	emailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "picam",
		Name:      "emails_sent_total",
		Help:      "Clips sent.",
	})
)

// RegisterUsage exports the size of the clip directory. Clips are never
// deleted, so this only grows.
func RegisterUsage(r prometheus.Registerer, fs *video.Filesystem) error {
	return r.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "picam",
		Name:      "clips_bytes",
		Help:      "Total size of recorded clips on disk.",
	}, func() float64 {
		sz, err := fs.Usage()
		if err != nil {
			log.Warnf("Failed to measure %v: %v", fs.BasePath, err)
			return 0
		}
		return float64(sz)
	}))
}
