// Package observability wires OTLP trace export into Genkit's tracer
// provider. Genkit already creates spans for flows, generate and embed
// calls; this package only attaches an exporter so those spans leave
// the process.
//
// Export is opt-in: with no endpoint configured the retrieval pipeline
// runs untraced. Any OTLP-over-HTTP collector works (OpenTelemetry
// Collector, Datadog Agent, Grafana Alloy).
//
// Config file (~/.vidya/config.yaml):
//
//	telemetry:
//	  endpoint: "localhost:4318"
//	  service_name: "vidya"
//	  environment: "dev"
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config for OTLP trace export.
type Config struct {
	// Endpoint is the OTLP HTTP collector endpoint, e.g. "localhost:4318".
	Endpoint string
	// Environment tags spans with the deployment environment.
	Environment string
	// ServiceName is the service name shown in the trace backend.
	ServiceName string
}

// DefaultEndpoint is the conventional local OTLP HTTP port.
const DefaultEndpoint = "localhost:4318"

// Setup registers an OTLP exporter with Genkit's TracerProvider and
// returns a shutdown function that flushes pending spans. Exporter
// construction failures disable tracing instead of failing startup.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	// Genkit's TracerProvider reads these at span creation time.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		slog.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return func(context.Context) error { return nil }, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	slog.Debug("trace export enabled",
		"endpoint", endpoint,
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)

	return tracing.TracerProvider().Shutdown, nil
}
