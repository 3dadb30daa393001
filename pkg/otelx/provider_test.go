package otelx_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/forum/pkg/otelx"
	"github.com/stretchr/testify/require"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := otelx.Setup(context.Background(), "", "forum", "test")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, shutdown(ctx))
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so nothing is actually exported.
	shutdown, err := otelx.Setup(context.Background(), "http://192.0.2.1:4318", "forum", "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
