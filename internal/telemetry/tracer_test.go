package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracerProvider(t *testing.T) {
	t.Run("No Endpoint", func(t *testing.T) {
		shutdown, err := InitTracerProvider(context.Background(), "", "foodorder-test", "0.0.0")
		require.NoError(t, err)
		assert.NoError(t, shutdown(context.Background()))
		assert.NotNil(t, otel.GetTextMapPropagator())
	})

	t.Run("With Endpoint", func(t *testing.T) {
		// the gRPC exporter connects lazily, so construction succeeds offline
		shutdown, err := InitTracerProvider(context.Background(), "localhost:4317", "foodorder-test", "0.0.0")
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_ = shutdown(ctx)
	})
}
