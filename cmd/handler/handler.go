package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mpaf/cdk-snippets/internal/util"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type Reply struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}

// Listen for requests proxied by the gateway.
func Listen(tp *sdktrace.TracerProvider) {
	util.SetLogLevel()

	instrumented := otellambda.InstrumentHandler(Handler,
		otellambda.WithTracerProvider(tp),
		otellambda.WithFlusher(tp),
	)

	lambda.Start(instrumented)
}

// Handler answers every gateway request with a greeting naming the function and the requested path.
func Handler(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx, span := otel.Tracer("").Start(ctx, "handler")
	defer span.End()

	function := util.Coalesce(lambdacontext.FunctionName, "local")

	span.SetAttributes(
		attribute.String("snippets.function", function),
		attribute.String("snippets.path", event.Path),
		attribute.String("snippets.method", event.HTTPMethod),
	)

	log.Info().
		Str("function", function).
		Str("method", event.HTTPMethod).
		Str("path", event.Path).
		Msg("request")

	body, err := json.Marshal(Reply{
		Message: "Hello from " + function,
		Path:    event.Path,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}, err
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}
