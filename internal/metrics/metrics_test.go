package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetConnectionStateIsExclusive(t *testing.T) {
	c := New()
	all := []string{"disconnected", "connecting", "connected"}

	c.SetConnectionState("connecting", all)
	c.SetConnectionState("connected", all)

	assert.Equal(t, 0.0, testutil.ToFloat64(c.ConnectionState.WithLabelValues("disconnected")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.ConnectionState.WithLabelValues("connecting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ConnectionState.WithLabelValues("connected")))
}

func TestNilCollectorsAreSafe(t *testing.T) {
	var c *Collectors
	assert.NotPanics(t, func() { c.SetConnectionState("connected", []string{"connected"}) })
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Reconnects.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Reconnects))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Reconnects))

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
