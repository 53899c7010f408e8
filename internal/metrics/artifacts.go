package metrics

import "github.com/prometheus/client_golang/prometheus"

// ArtifactMetrics tracks marketplace uploads.
type ArtifactMetrics struct {
	UploadsTotal *prometheus.CounterVec
	UploadBytes  prometheus.Counter
}

func NewArtifactMetrics(reg prometheus.Registerer) *ArtifactMetrics {
	m := &ArtifactMetrics{
		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "artifacts",
			Name:      "uploads_total",
			Help:      "Artifact uploads by result (stored, rejected, error) and preview (true, false).",
		}, []string{"result", "preview"}),
		UploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "artifacts",
			Name:      "upload_bytes_total",
			Help:      "Bytes of stored artifact masters.",
		}),
	}

	reg.MustRegister(m.UploadsTotal, m.UploadBytes)
	return m
}
