// Package account logs docker into the registries cdk publishes container assets to.
package account

import (
	"context"
	"fmt"

	"github.com/mpaf/cdk-snippets/pkg/convention/config"
	"github.com/mpaf/cdk-snippets/pkg/service/registry"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type RegistryService interface {
	Token(ctx context.Context, registryId string) (string, error)
}

type BuildService interface {
	Login(ctx context.Context, registryUrl, username, password string) error
}

type Services struct {
	Registry RegistryService
	Build    BuildService
}

type Convention struct {
	Config  config.Config
	Service Services
}

// Target is a registry docker must be logged into, with the asset repository cdk pushes to there.
type Target struct {
	Registry   config.Registry
	Repository string
}

func FromServices(c config.Config, b BuildService, r RegistryService) Convention {
	return Convention{
		Config: c,
		Service: Services{
			Registry: r,
			Build:    b,
		},
	}
}

// Targets lists the bootstrap asset registry of the default environment, then the configured
// registry when it is a different one.
func (c Convention) Targets() []Target {
	var targets []Target

	if c.Config.Account.Id != "" && c.Config.Account.Region != "" {
		targets = append(targets, Target{
			Registry: config.Registry{
				Id:     c.Config.Account.Id,
				Region: c.Config.Account.Region,
				Url:    config.RegistryUrl(c.Config.Account.Id, c.Config.Account.Region),
			},
			Repository: registry.AssetRepository(c.Config.Account.Id, c.Config.Account.Region),
		})
	}

	configured := c.Config.Registry
	if configured.Id == "" || (len(targets) > 0 && targets[0].Registry.Url == configured.Url) {
		return targets
	}

	return append(targets, Target{
		Registry:   configured,
		Repository: registry.AssetRepository(configured.Id, configured.Region),
	})
}

func (c Convention) LoginToEcr(ctx context.Context) error {
	ctx, span := otel.Tracer("").Start(ctx, "ecr-login")
	defer span.End()

	targets := c.Targets()
	if len(targets) == 0 {
		err := fmt.Errorf("no registry to log into; set CDK_DEFAULT_ACCOUNT and CDK_DEFAULT_REGION or AWS_ECR_REGISTRY_ID")
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	var urls, repositories []string
	for _, target := range targets {
		urls = append(urls, target.Registry.Url)
		repositories = append(repositories, target.Repository)
	}

	span.SetAttributes(
		attribute.StringSlice("registry-urls", urls),
		attribute.StringSlice("asset-repositories", repositories),
	)

	for _, target := range targets {
		token, err := c.Service.Registry.Token(ctx, target.Registry.Id)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		if err := c.Service.Build.Login(ctx, target.Registry.Url, "AWS", token); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to login to %s: %w", target.Registry.Url, err)
		}

		log.Info().Str("registry", target.Registry.Url).Str("repository", target.Repository).Msg("logged into asset registry")
	}

	return nil
}
