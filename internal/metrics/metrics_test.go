package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.MatchesCreated.Inc()
	a.BadRequests.WithLabelValues("match_not_found").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.MatchesCreated))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.MatchesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.BadRequests.WithLabelValues("match_not_found")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.ConnectionsTotal.WithLabelValues("tcp").Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `wordgame_connections_total{transport="tcp"} 1`)
}
