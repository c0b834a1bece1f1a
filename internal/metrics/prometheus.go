// ABOUTME: Prometheus metrics for the audio bridge
// ABOUTME: Bridge throughput, session lifecycle and coordinator event counters
package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the bridge.
type Metrics struct {
	// Bridge data path
	BytesPushed   prometheus.Counter
	BytesPulled   prometheus.Counter
	BlocksWritten prometheus.Counter

	// Session lifecycle
	SessionsStarted prometheus.Counter
	SessionsStopped prometheus.Counter
	SessionActive   prometheus.Gauge

	// Coordinator
	EventsProcessed  *prometheus.CounterVec
	MetadataFailures prometheus.Counter

	// Voice transport
	FramesSent prometheus.Counter
	VoiceJoins prometheus.Counter
}

// New creates and registers all metrics.
func New() *Metrics {
	return &Metrics{
		BytesPushed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "calliope_bridge_bytes_pushed_total",
			Help: "Total bytes pushed into the byte bridge",
		}),
		BytesPulled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "calliope_bridge_bytes_pulled_total",
			Help: "Total bytes pulled from the byte bridge",
		}),
		BlocksWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "calliope_sink_blocks_written_total",
			Help: "Total audio blocks written through the sink",
		}),
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "calliope_sessions_started_total",
			Help: "Total connect sessions started",
		}),
		SessionsStopped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "calliope_sessions_stopped_total",
			Help: "Total connect sessions stopped",
		}),
		SessionActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "calliope_session_active",
			Help: "Whether a connect session is currently live",
		}),
		EventsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "calliope_events_processed_total",
			Help: "Playback events processed by kind",
		}, []string{"kind"}),
		MetadataFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "calliope_metadata_failures_total",
			Help: "Total metadata lookups that failed",
		}),
		FramesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "calliope_voice_frames_sent_total",
			Help: "Total opus frames sent to the voice call",
		}),
		VoiceJoins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "calliope_voice_joins_total",
			Help: "Total voice channel joins",
		}),
	}
}

// Serve exposes /metrics on addr. Blocks; run in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.Printf("Metrics listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
