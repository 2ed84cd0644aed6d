// ABOUTME: Prometheus counters for uploads, saves, and submissions
// ABOUTME: A nil *Metrics is valid and records nothing
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hazardos"

type Metrics struct {
	uploadAttempts   *prometheus.CounterVec
	uploadsExhausted prometheus.Counter
	saves            *prometheus.CounterVec
	submissions      *prometheus.CounterVec
	online           prometheus.Gauge
}

// New registers the survey engine collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		uploadAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "uploads",
			Name:      "attempts_total",
			Help:      "Photo upload attempts by result.",
		}, []string{"result"}),
		uploadsExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "uploads",
			Name:      "exhausted_total",
			Help:      "Photos that used up their automatic retries.",
		}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "drafts",
			Name:      "saves_total",
			Help:      "Draft saves by target and result.",
		}, []string{"target", "result"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "drafts",
			Name:      "submissions_total",
			Help:      "Submit attempts by outcome.",
		}, []string{"outcome"}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online",
			Help:      "1 while the remote backend is reachable.",
		}),
	}
	reg.MustRegister(m.uploadAttempts, m.uploadsExhausted, m.saves, m.submissions, m.online)
	return m
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func (m *Metrics) UploadAttempt(err error) {
	if m == nil {
		return
	}
	m.uploadAttempts.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) UploadExhausted() {
	if m == nil {
		return
	}
	m.uploadsExhausted.Inc()
}

// Save records one save against target ("local" or "remote").
func (m *Metrics) Save(target string, err error) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(target, result(err)).Inc()
}

func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetOnline(online bool) {
	if m == nil {
		return
	}
	if online {
		m.online.Set(1)
	} else {
		m.online.Set(0)
	}
}
