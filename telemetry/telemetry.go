// Package telemetry exposes Prometheus metrics for the bot.
package telemetry

import (
	"cogito/logger"
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	// Counters
	FramesReceived     *prometheus.CounterVec
	FramesSent         prometheus.Counter
	MalformedFrames    prometheus.Counter
	DispatchFailures   *prometheus.CounterVec
	Reconnects         prometheus.Counter
	IncidentsRaised    *prometheus.CounterVec
	EnforcementActions *prometheus.CounterVec

	// Gauges
	SendQueueDepth prometheus.Gauge
	SendInterval   prometheus.Gauge
	JoinedChannels prometheus.Gauge
)

// Init registers metrics (idempotent). Until it is called every recorder is a no-op.
func Init() {
	once.Do(func() {
		FramesReceived = promauto.NewCounterVec(prometheus.CounterOpts{Name: "cogito_frames_received_total", Help: "Frames received from the server by opcode"}, []string{"opcode"})
		FramesSent = promauto.NewCounter(prometheus.CounterOpts{Name: "cogito_frames_sent_total", Help: "Frames written to the server"})
		MalformedFrames = promauto.NewCounter(prometheus.CounterOpts{Name: "cogito_frames_malformed_total", Help: "Inbound frames discarded as malformed"})
		DispatchFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "cogito_dispatch_failures_total", Help: "Opcode handlers that returned an error"}, []string{"opcode"})
		Reconnects = promauto.NewCounter(prometheus.CounterOpts{Name: "cogito_reconnects_total", Help: "Connection attempts after a lost connection"})
		IncidentsRaised = promauto.NewCounterVec(prometheus.CounterOpts{Name: "cogito_incidents_total", Help: "Moderation incidents by delivery"}, []string{"delivery"})
		EnforcementActions = promauto.NewCounterVec(prometheus.CounterOpts{Name: "cogito_enforcement_actions_total", Help: "Age policy outcomes by kind"}, []string{"action"})
		SendQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{Name: "cogito_send_queue_depth", Help: "Frames waiting in the outbound queue"})
		SendInterval = promauto.NewGauge(prometheus.GaugeOpts{Name: "cogito_send_interval_seconds", Help: "Current outbound frame interval"})
		JoinedChannels = promauto.NewGauge(prometheus.GaugeOpts{Name: "cogito_joined_channels", Help: "Channels currently joined"})
	})
}

func FrameReceived(opcode string) {
	if FramesReceived != nil {
		FramesReceived.WithLabelValues(opcode).Inc()
	}
}

func FrameSent() {
	if FramesSent != nil {
		FramesSent.Inc()
	}
}

func FrameMalformed() {
	if MalformedFrames != nil {
		MalformedFrames.Inc()
	}
}

func DispatchFailed(opcode string) {
	if DispatchFailures != nil {
		DispatchFailures.WithLabelValues(opcode).Inc()
	}
}

func Reconnected() {
	if Reconnects != nil {
		Reconnects.Inc()
	}
}

// IncidentRaised records an incident as either "alerted" or "queued"
func IncidentRaised(delivery string) {
	if IncidentsRaised != nil {
		IncidentsRaised.WithLabelValues(delivery).Inc()
	}
}

func Enforced(action string) {
	if EnforcementActions != nil {
		EnforcementActions.WithLabelValues(action).Inc()
	}
}

func SetQueueDepth(n int) {
	if SendQueueDepth != nil {
		SendQueueDepth.Set(float64(n))
	}
}

func SetSendInterval(d time.Duration) {
	if SendInterval != nil {
		SendInterval.Set(d.Seconds())
	}
}

func SetJoinedChannels(n int) {
	if JoinedChannels != nil {
		JoinedChannels.Set(float64(n))
	}
}

// Serve exposes /metrics on listen until ctx is cancelled
func Serve(ctx context.Context, listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown failed", "error", err)
		}
	}()

	logger.Info("Serving metrics", "listen", listen)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
