// ABOUTME: Online/offline signal fed by an HTTP health probe or explicit updates
// ABOUTME: Subscribers see the latest state and SyncNow requests an immediate sync
package connectivity

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/markahope-aag/hazardos-sub000/logging"
	"github.com/markahope-aag/hazardos-sub000/metrics"
)

// ProbeFunc reports whether the backend is reachable.
type ProbeFunc func(ctx context.Context) bool

// HTTPProbe treats any non-5xx answer to a HEAD request as online.
func HTTPProbe(client *http.Client, url string) ProbeFunc {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode < http.StatusInternalServerError
	}
}

type Option func(*Monitor)

func WithProbe(p ProbeFunc, interval time.Duration) Option {
	return func(m *Monitor) {
		m.probe = p
		m.interval = interval
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Monitor) { m.metrics = mt }
}

func WithLogger(l *logrus.Entry) Option {
	return func(m *Monitor) { m.log = l }
}

// Monitor holds the current connectivity state.
type Monitor struct {
	probe    ProbeFunc
	interval time.Duration
	log      *logrus.Entry
	metrics  *metrics.Metrics

	mu      sync.Mutex
	online  bool
	subs    map[chan bool]struct{}
	syncReq chan struct{}
}

// NewMonitor starts in the given state. Without a probe the state only changes through Set.
func NewMonitor(online bool, opts ...Option) *Monitor {
	m := &Monitor{
		online:   online,
		interval: 15 * time.Second,
		log:      logging.For("connectivity"),
		subs:     map[chan bool]struct{}{},
		syncReq:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.metrics.SetOnline(online)
	return m
}

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Set records the state and notifies subscribers when it changed.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.online == online {
		return
	}
	m.online = online
	m.metrics.SetOnline(online)
	m.log.WithField("online", online).Info("connectivity changed")
	for ch := range m.subs {
		// keep only the newest value for slow readers
		select {
		case <-ch:
		default:
		}
		ch <- online
	}
}

// Subscribe returns a channel that receives each state change.
func (m *Monitor) Subscribe() <-chan bool {
	ch := make(chan bool, 1)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()
	return ch
}

// Unsubscribe stops delivery to a channel returned by Subscribe.
func (m *Monitor) Unsubscribe(sub <-chan bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subs {
		if ch == sub {
			delete(m.subs, ch)
			return
		}
	}
}

// SyncNow asks for an immediate sync. Requests coalesce while one is outstanding.
func (m *Monitor) SyncNow() {
	select {
	case m.syncReq <- struct{}{}:
	default:
	}
}

// SyncRequests delivers SyncNow requests to the single sync consumer.
func (m *Monitor) SyncRequests() <-chan struct{} {
	return m.syncReq
}

// Check runs the probe once and applies the result.
func (m *Monitor) Check(ctx context.Context) bool {
	if m.probe == nil {
		return m.Online()
	}
	online := m.probe(ctx)
	m.Set(online)
	return online
}

// Run probes on every interval until ctx ends. Without a probe it just waits.
func (m *Monitor) Run(ctx context.Context) {
	if m.probe == nil {
		<-ctx.Done()
		return
	}
	m.Check(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
