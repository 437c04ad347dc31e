package endpoint

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mpaf/cdk-snippets/pkg/convention/config"
	"github.com/mpaf/cdk-snippets/pkg/service/outputs"
	"github.com/mpaf/cdk-snippets/pkg/service/probe"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Output keys the stacks publish their public endpoint under.
const (
	LambdaOutput    = "Url"
	AppRunnerOutput = "ServiceUrl"
)

type OutputsService interface {
	Describe(ctx context.Context, stackName string) (outputs.Stack, error)
	Value(ctx context.Context, stackName, key string) (string, error)
}

type ProbeService interface {
	Get(ctx context.Context, url string) (probe.Result, error)
}

type Services struct {
	Outputs     OutputsService
	Probe       ProbeService
	SignedProbe ProbeService
}

type Convention struct {
	Config  config.Config
	Service Services
}

func FromServices(c config.Config, o OutputsService, p ProbeService) Convention {
	return Convention{
		Config: c,
		Service: Services{
			Outputs: o,
			Probe:   p,
		},
	}
}

// WithSignedProbe attaches a probe that signs its requests, for endpoints behind IAM authorization.
func (c Convention) WithSignedProbe(p ProbeService) Convention {
	c.Service.SignedProbe = p
	return c
}

// Signed switches probing to the signing probe.
func (c Convention) Signed() (Convention, error) {
	if c.Service.SignedProbe == nil {
		return c, fmt.Errorf("no signing probe configured")
	}

	c.Service.Probe = c.Service.SignedProbe
	return c, nil
}

func (c Convention) Describe(ctx context.Context, stackName string) (outputs.Stack, error) {
	return c.Service.Outputs.Describe(ctx, stackName)
}

// Validate reads outputKey off a deployed stack and probes the url it holds.
func (c Convention) Validate(ctx context.Context, stackName, outputKey string) (probe.Result, error) {
	ctx, span := otel.Tracer("").Start(ctx, "validate-endpoint")
	defer span.End()

	span.SetAttributes(
		attribute.String("stack", stackName),
		attribute.String("output", outputKey),
	)

	value, err := c.Service.Outputs.Value(ctx, stackName, outputKey)
	if err != nil {
		return probe.Result{}, err
	}

	log.Info().Str("stack", stackName).Str("output", outputKey).Str("url", value).Msg("validating endpoint")

	return c.ValidateUrl(ctx, value)
}

func (c Convention) ValidateUrl(ctx context.Context, raw string) (probe.Result, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return probe.Result{}, fmt.Errorf("invalid endpoint %q: %w", raw, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return probe.Result{}, fmt.Errorf("invalid endpoint %q: scheme must be http or https", raw)
	}

	return c.Service.Probe.Get(ctx, u.String())
}
