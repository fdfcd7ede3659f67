package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetup_Disabled(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), TelemetryConfig{ServiceName: "korli"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestSetup_InstallsProviders(t *testing.T) {
	origTP, origMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(origTP)
		otel.SetMeterProvider(origMP)
	})

	// Exporters connect lazily, so an unreachable endpoint is fine here.
	shutdown, err := Setup(context.Background(), TelemetryConfig{
		ServiceName: "korli",
		Endpoint:    "127.0.0.1:1",
		Insecure:    true,
		Tracing:     true,
		Metrics:     true,
	})
	require.NoError(t, err)

	_, isSDKTracer := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, isSDKTracer)
	_, isSDKMeter := otel.GetMeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, isSDKMeter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Flushing to a dead endpoint with a cancelled context reports an error
	// or nothing; either way shutdown must return.
	_ = shutdown(ctx)
}
