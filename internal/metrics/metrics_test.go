package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAuthEvent(t *testing.T) {
	m := New()
	m.RecordAuthEvent("callback", ResultSuccess, "")
	m.RecordAuthEvent("callback", ResultFailure, "csrf_mismatch")
	m.RecordAuthEvent("callback", ResultFailure, "csrf_mismatch")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthEvents.WithLabelValues("callback", ResultSuccess, "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthEvents.WithLabelValues("callback", ResultFailure, "csrf_mismatch")))
}

func TestRecordPhotoOperation(t *testing.T) {
	m := New()
	m.RecordPhotoOperation("upload", nil)
	m.RecordPhotoOperation("upload", errors.New("s3 down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhotoOperations.WithLabelValues("upload", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhotoOperations.WithLabelValues("upload", ResultFailure)))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAuthEvent("login", ResultSuccess, "")
		m.RecordPhotoOperation("list", nil)
		m.RecordUpload(10, time.Millisecond)
	})

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordUpload(50_000, 120*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "gallery_photo_upload_duration_seconds_count 1")
	assert.Contains(t, string(body), "go_goroutines")
}
