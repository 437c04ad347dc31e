package tracing

import (
	"context"
	"os"

	"github.com/mpaf/cdk-snippets/internal/util"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const ServiceName = "cdk-snippets"

// Resource describes this process: the snippets binary running as the CLI or as the Lambda handler.
func Resource() *resource.Resource {
	runtime := "cli"
	attrs := []attribute.KeyValue{
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", util.Coalesce(os.Getenv("SNIPPETS_VERSION"), "dev")),
	}

	if util.InLambda() {
		runtime = "lambda"
		attrs = append(attrs, attribute.String("faas.name", os.Getenv("AWS_LAMBDA_FUNCTION_NAME")))
	}

	return resource.NewSchemaless(append(attrs, attribute.String("snippets.runtime", runtime))...)
}

// InitOtel installs a global tracer provider. Spans are only exported when an OTLP endpoint is configured.
func InitOtel(ctx context.Context) (tp *sdktrace.TracerProvider, shutdown func()) {
	res := Resource()

	tp = sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	shutdown = func() {
		_ = tp.Shutdown(ctx)
	}

	if util.OtelConfigPresent() {
		log.Info().Str("service", ServiceName).Msg("exporting spans over OTLP")

		exp, err := otlptrace.New(ctx, otlptracegrpc.NewClient())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create OTLP exporter")
		}

		tp = sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp), sdktrace.WithResource(res))

		shutdown = func() {
			_ = tp.ForceFlush(ctx)
			_ = exp.Shutdown(ctx)
			_ = tp.Shutdown(ctx)
		}
	}

	otel.SetTextMapPropagator(propagation.TraceContext{})
	otel.SetTracerProvider(tp)

	return tp, shutdown
}
