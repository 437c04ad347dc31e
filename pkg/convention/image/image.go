package image

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mpaf/cdk-snippets/pkg/convention/config"
	"github.com/mpaf/cdk-snippets/pkg/service/registry"

	"github.com/docker/docker/api/types"
	"github.com/golang-module/carbon/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Images older than this are reported as stale.
const StaleWeeks = 4

type RegistryService interface {
	List(ctx context.Context, registryId, repository string) ([]registry.Image, error)
	InspectByTag(ctx context.Context, registryId, repository, tag string) (types.ImageInspect, error)
}

type Services struct {
	Registry RegistryService
}

type Convention struct {
	Config  config.Config
	Service Services
	// now is swapped in tests
	now func() time.Time
}

type Summary struct {
	Digest string
	Tags   string
	Pushed string
	Stale  bool
}

func FromServices(c config.Config, r RegistryService) Convention {
	return Convention{
		Config: c,
		Service: Services{
			Registry: r,
		},
		now: time.Now,
	}
}

// Repository is where cdk publishes the container assets of the default environment.
func (c Convention) Repository() string {
	return registry.AssetRepository(c.Config.Account.Id, c.Config.Account.Region)
}

func (c Convention) List(ctx context.Context) ([]Summary, error) {
	ctx, span := otel.Tracer("").Start(ctx, "list-images")
	defer span.End()

	span.SetAttributes(attribute.String("repository-name", c.Repository()))

	images, err := c.Service.Registry.List(ctx, c.Config.Account.Id, c.Repository())
	if err != nil {
		return nil, err
	}

	now := carbon.CreateFromStdTime(c.now())
	cutoff := now.SubWeeks(StaleWeeks)

	summaries := make([]Summary, 0, len(images))
	for _, image := range images {
		pushed := carbon.CreateFromStdTime(image.PushedAt)

		summaries = append(summaries, Summary{
			Digest: image.Digest,
			Tags:   strings.Join(image.Tags, ","),
			Pushed: pushed.DiffForHumans(now),
			Stale:  pushed.Lt(cutoff),
		})
	}

	return summaries, nil
}

func (c Convention) Inspect(ctx context.Context, tag string) (types.ImageInspect, error) {
	ctx, span := otel.Tracer("").Start(ctx, "inspect-image")
	defer span.End()

	span.SetAttributes(
		attribute.String("repository-name", c.Repository()),
		attribute.String("tag", tag),
	)

	if tag == "" {
		return types.ImageInspect{}, fmt.Errorf("image tag is required")
	}

	return c.Service.Registry.InspectByTag(ctx, c.Config.Account.Id, c.Repository(), tag)
}
