package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Call metrics
	activeCalls = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_bridge_active_calls",
		Help: "Number of active phone calls",
	})

	totalCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_bridge_calls_total",
		Help: "Total number of calls processed",
	})

	callDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_bridge_call_duration_seconds",
		Help:    "Duration of phone calls in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	// Turn transcription metrics
	transcriptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_bridge_transcriptions_total",
		Help: "Total number of turn transcription requests",
	}, []string{"speaker", "status"})

	transcriptionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_bridge_transcription_latency_seconds",
		Help:    "Turn transcription latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	// Interruption (barge-in) metrics
	interruptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_bridge_interruptions_total",
		Help: "Total number of assistant playback interruptions",
	})

	// Extraction metrics
	extractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_bridge_extractions_total",
		Help: "Total number of post-call extraction requests",
	}, []string{"status"})

	// Notification metrics
	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_bridge_notifications_total",
		Help: "Total number of SMS notifications sent",
	}, []string{"recipient", "status"})

	// Persistence metrics
	ordersPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_bridge_orders_persisted_total",
		Help: "Total number of order persistence attempts",
	}, []string{"status"})

	// Frame metrics
	framesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_bridge_frames_dropped_total",
		Help: "Inbound media frames dropped before the outbound leg was ready",
	})

	audioBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_bridge_audio_bytes_total",
		Help: "Total audio bytes relayed",
	}, []string{"direction"}) // direction: "in" or "out"

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_bridge_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})
)

// CallMetrics tracks metrics for a single call
type CallMetrics struct {
	callID    string
	startTime time.Time
}

// NewCallMetrics creates a new metrics tracker for a call
func NewCallMetrics(callID string) *CallMetrics {
	return &CallMetrics{
		callID:    callID,
		startTime: time.Now(),
	}
}

// RecordCallStart records the start of a call
func (m *CallMetrics) RecordCallStart() {
	activeCalls.Inc()
	totalCalls.Inc()
}

// RecordCallEnd records the end of a call
func (m *CallMetrics) RecordCallEnd() {
	activeCalls.Dec()
	callDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordTranscription records a completed turn transcription attempt
func (m *CallMetrics) RecordTranscription(speaker string, elapsed time.Duration, success bool) {
	transcriptionLatency.Observe(elapsed.Seconds())
	transcriptions.WithLabelValues(speaker, statusLabel(success)).Inc()
}

// RecordInterruption records an executed barge-in
func (m *CallMetrics) RecordInterruption() {
	interruptions.Inc()
}

// RecordDroppedFrame records an inbound frame dropped before outbound readiness
func (m *CallMetrics) RecordDroppedFrame() {
	framesDropped.Inc()
}

// RecordAudioBytes records audio bytes relayed in the given direction
func (m *CallMetrics) RecordAudioBytes(direction string, bytes int64) {
	audioBytes.WithLabelValues(direction).Add(float64(bytes))
}

// RecordError records an error
func (m *CallMetrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordExtraction records a post-call extraction attempt
func RecordExtraction(success bool) {
	extractions.WithLabelValues(statusLabel(success)).Inc()
}

// RecordNotification records an SMS notification attempt
func RecordNotification(recipient string, success bool) {
	notifications.WithLabelValues(recipient, statusLabel(success)).Inc()
}

// RecordPersistence records an order persistence attempt
func RecordPersistence(success bool) {
	ordersPersisted.WithLabelValues(statusLabel(success)).Inc()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
