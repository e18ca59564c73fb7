// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlinePlayers  prometheus.Gauge
	ActiveArenas   prometheus.Gauge
	MatchesStarted prometheus.Counter
	MatchesEnded   *prometheus.CounterVec
	JoinLatency    prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of players currently in an arena",
		}),
		ActiveArenas: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_arenas",
			Help:      "Number of registered arenas",
		}),
		MatchesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_started_total",
			Help:      "Total number of matches started",
		}),
		MatchesEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_ended_total",
			Help:      "Total number of matches ended, by outcome",
		}, []string{"outcome"}),
		JoinLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "join_latency_seconds",
			Help:      "Join handling latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}

	prometheus.MustRegister(
		m.OnlinePlayers,
		m.ActiveArenas,
		m.MatchesStarted,
		m.MatchesEnded,
		m.JoinLatency,
	)

	return m
}

type Monitor struct {
	metrics   *Metrics
	startTime time.Time
	joinCount int64
	mutex     sync.Mutex
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())

	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("joins", expvar.Func(func() interface{} {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.joinCount
	}))

	go http.ListenAndServe(addr, nil)
}

// PlayerJoined implements workflow.Observer.
func (m *Monitor) PlayerJoined() {
	m.metrics.OnlinePlayers.Inc()
	m.mutex.Lock()
	m.joinCount++
	m.mutex.Unlock()
}

// PlayerLeft implements workflow.Observer.
func (m *Monitor) PlayerLeft() {
	m.metrics.OnlinePlayers.Dec()
}

// MatchStarted implements workflow.Observer.
func (m *Monitor) MatchStarted() {
	m.metrics.MatchesStarted.Inc()
}

// MatchEnded implements workflow.Observer.
func (m *Monitor) MatchEnded(outcome string) {
	m.metrics.MatchesEnded.WithLabelValues(outcome).Inc()
}

func (m *Monitor) SetActiveArenas(count int) {
	m.metrics.ActiveArenas.Set(float64(count))
}

func (m *Monitor) ObserveJoinLatency(duration time.Duration) {
	m.metrics.JoinLatency.Observe(duration.Seconds())
}
