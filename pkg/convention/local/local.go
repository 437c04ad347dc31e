package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mpaf/cdk-snippets/internal/util"
	"github.com/mpaf/cdk-snippets/pkg/convention/config"
	"github.com/mpaf/cdk-snippets/pkg/service/docker"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	ImageName     = "cdk-snippets"
	ContainerPort = 80
	VersionLabel  = "org.opencontainers.image.version"
	SourceLabel   = "org.opencontainers.image.source"
)

type BuildService interface {
	Build(ctx context.Context, i docker.BuildInput) error
	Run(ctx context.Context, i docker.RunInput) error
}

type Services struct {
	Build BuildService
}

type Convention struct {
	Config  config.Config
	Service Services
}

func FromServices(c config.Config, b BuildService) Convention {
	return Convention{
		Config: c,
		Service: Services{
			Build: b,
		},
	}
}

func (c Convention) Tag() string {
	return ImageName + ":" + util.Coalesce(c.Config.Version, "dev")
}

func (c Convention) BuildInput() (docker.BuildInput, error) {
	dockerfile, err := filepath.Rel(c.Config.Assets.Root, filepath.Join(c.Config.Assets.Container, "Dockerfile"))
	if err != nil {
		return docker.BuildInput{}, fmt.Errorf("container assets are outside %s: %w", c.Config.Assets.Root, err)
	}

	if !util.PathExists(filepath.Join(c.Config.Assets.Root, dockerfile)) {
		return docker.BuildInput{}, fmt.Errorf("no Dockerfile at %s", filepath.Join(c.Config.Assets.Root, dockerfile))
	}

	labels := map[string]string{
		VersionLabel: util.Coalesce(c.Config.Version, "dev"),
	}
	if c.Config.Git.Origin != "" {
		labels[SourceLabel] = c.Config.Git.Origin
	}

	return docker.BuildInput{
		Context:    c.Config.Assets.Root,
		Dockerfile: dockerfile,
		Tags:       []string{c.Tag()},
		Labels:     labels,
	}, nil
}

// Serve builds the container asset and runs it with hostPort mapped onto the app port.
func (c Convention) Serve(ctx context.Context, hostPort int) error {
	ctx, span := otel.Tracer("").Start(ctx, "local-serve")
	defer span.End()

	input, err := c.BuildInput()
	if err != nil {
		return err
	}

	span.SetAttributes(
		attribute.String("image", c.Tag()),
		attribute.Int("port", hostPort),
	)

	log.Info().Str("image", c.Tag()).Str("context", input.Context).Msg("building container")

	if err := c.Service.Build.Build(ctx, input); err != nil {
		return err
	}

	log.Info().Str("image", c.Tag()).Msgf("serving on http://localhost:%d", hostPort)

	return c.Service.Build.Run(ctx, docker.RunInput{
		Image:         c.Tag(),
		HostPort:      hostPort,
		ContainerPort: ContainerPort,
		Env: map[string]string{
			"LOG_LEVEL": util.Coalesce(os.Getenv("LOG_LEVEL"), "info"),
		},
	})
}
