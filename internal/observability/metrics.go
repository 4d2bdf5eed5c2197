package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "secure_entry",
		Name:      "images_processed_total",
		Help:      "Total number of camera images processed",
	}, []string{"camera"})

	FacesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "secure_entry",
		Name:      "faces_detected_total",
		Help:      "Total number of faces detected in camera images",
	}, []string{"camera"})

	FacesAuthorized = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "secure_entry",
		Name:      "faces_authorized_total",
		Help:      "Total number of faces matched to an authorized identity",
	}, []string{"camera"})

	ApprovalsDeferred = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "secure_entry",
		Name:      "approvals_deferred_total",
		Help:      "Total number of unknown faces deferred to a human approver",
	}, []string{"camera"})

	ApprovalsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "secure_entry",
		Name:      "approvals_resolved_total",
		Help:      "Total number of pending approvals resolved by a human",
	})

	ApprovalsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "secure_entry",
		Name:      "approvals_expired_total",
		Help:      "Total number of pending approvals that timed out",
	})

	PendingApprovals = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "secure_entry",
		Name:      "pending_approvals",
		Help:      "Number of approvals currently awaiting a human decision",
	})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "secure_entry",
		Name:      "inference_duration_seconds",
		Help:      "Duration of ML inference stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "secure_entry",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "secure_entry",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
