package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/snackbar/internal/model"
	"github.com/jmylchreest/snackbar/internal/provider"
)

func TestMetrics_Observer(t *testing.T) {
	m := New()

	m.SnackEnqueued(model.VariantError)
	m.SnackEnqueued(model.VariantError)
	m.SnackRejected(provider.RejectDuplicateMessage)
	m.SnackClosed(model.CloseReasonTimeout)
	m.QueueDepth(3, 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Enqueued.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejected.WithLabelValues("duplicate_message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Closed.WithLabelValues("timeout")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Active))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Pending))
}

func TestMetrics_WiredIntoProvider(t *testing.T) {
	m := New()
	p := provider.New(provider.Config{
		Options:  provider.DefaultOptions(),
		Clock:    clockwork.NewFakeClockAt(time.Unix(0, 0)),
		Observer: m,
	})
	defer p.Shutdown()

	for _, msg := range []string{"a", "b", "c", "d"} {
		_, ok := p.Enqueue(model.Snack{Message: msg, Variant: model.VariantSuccess})
		require.True(t, ok)
	}
	_, ok := p.Enqueue(model.Snack{Message: "  "})
	require.False(t, ok)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.Enqueued.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejected.WithLabelValues(provider.RejectInvalid)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Active))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Pending))
}

func TestServer_ServesMetrics(t *testing.T) {
	m := New()
	m.SnackEnqueued(model.VariantInfo)

	srv := NewServer("127.0.0.1:0", m, nil)
	addr, err := srv.Start()
	require.NoError(t, err)
	defer func() { _ = srv.Shutdown(context.Background()) }()

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `snackbar_snacks_enqueued_total{variant="info"} 1`))
}
