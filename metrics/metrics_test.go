// ABOUTME: Tests for the prometheus counters
// ABOUTME: Uses testutil to read counter values off a private registry
package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.UploadAttempt(nil)
	m.UploadAttempt(errors.New("503"))
	m.UploadAttempt(errors.New("503"))
	m.UploadExhausted()
	m.Save("local", nil)
	m.Save("remote", errors.New("offline"))
	m.Submission("submitted")
	m.SetOnline(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploadAttempts.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.uploadAttempts.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploadsExhausted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.saves.WithLabelValues("remote", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.online))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.UploadAttempt(nil)
		m.UploadExhausted()
		m.Save("local", nil)
		m.Submission("failed")
		m.SetOnline(false)
	})
}
