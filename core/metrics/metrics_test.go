package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	baseFlow := testutil.ToFloat64(flowEvents.WithLabelValues("order", "committed"))
	baseFail := testutil.ToFloat64(notifications.WithLabelValues("order_status", "fail"))
	baseOK := testutil.ToFloat64(notifications.WithLabelValues("order_status", "ok"))
	baseLimited := testutil.ToFloat64(rateLimited)

	ObserveFlow("order", "committed")
	ObserveNotification("order_status", errors.New("blocked"))
	ObserveNotification("order_status", nil)
	IncRateLimited()
	ObserveHandler("menu.gallery", "ok", 20*time.Millisecond)

	assert.Equal(t, baseFlow+1, testutil.ToFloat64(flowEvents.WithLabelValues("order", "committed")))
	assert.Equal(t, baseFail+1, testutil.ToFloat64(notifications.WithLabelValues("order_status", "fail")))
	assert.Equal(t, baseOK+1, testutil.ToFloat64(notifications.WithLabelValues("order_status", "ok")))
	assert.Equal(t, baseLimited+1, testutil.ToFloat64(rateLimited))
}

func TestRouterHealthAndMetrics(t *testing.T) {
	healthy := Router(map[string]HealthFunc{"db": func(context.Context) error { return nil }})

	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	ObserveUpdate("message")
	rec = httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "bookbot_updates_total"))

	broken := Router(map[string]HealthFunc{"redis": func(context.Context) error { return errors.New("down") }})
	rec = httptest.NewRecorder()
	broken.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis: down")
}

func TestServeDisabledWithoutListen(t *testing.T) {
	assert.NoError(t, Serve(context.Background(), "", nil))
}
