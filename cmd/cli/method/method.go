package method

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mpaf/cdk-snippets/cmd/cli/param"
	"github.com/mpaf/cdk-snippets/cmd/cli/view"
	"github.com/mpaf/cdk-snippets/pkg/catalog"
	"github.com/mpaf/cdk-snippets/pkg/convention/config"
	"github.com/mpaf/cdk-snippets/pkg/convention/webapp"
	"github.com/mpaf/cdk-snippets/pkg/sdk"

	"github.com/rs/zerolog/log"
)

func ListApps(ctx context.Context, p *param.Apps) {
	fmt.Println(view.Apps(catalog.Entries()))
}

func ServeApp(ctx context.Context, p *param.Serve) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := webapp.Serve(ctx, p.Port, os.Getenv("SNIPPETS_VERSION")); err != nil {
		log.Fatal().Err(err).Int("port", p.Port).Msg("failed to serve container app")
	}
}

func SynthApp(ctx context.Context, cfg config.Config, p *param.Synth) {
	stacks, err := catalog.Synth(p.App, cfg, p.Out)
	if err != nil {
		log.Fatal().Err(err).Str("app", p.App).Msg("failed to synthesize app")
	}

	log.Debug().Strs("stacks", stacks).Msg("synth complete")
}

func PrintConfig(ctx context.Context, cfg config.Config, p *param.Config) {
	j, err := cfg.Json(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to render configuration")
	}

	fmt.Println(j)
}

func PrintOutputs(ctx context.Context, api sdk.API, p *param.Outputs) {
	stack, err := api.Endpoint.Describe(ctx, p.Stack)
	if err != nil {
		log.Fatal().Err(err).Str("stack", p.Stack).Msg("failed to describe stack")
	}

	fmt.Println(view.Stack(stack))
}

func ValidateEndpoint(ctx context.Context, api sdk.API, p *param.Validate) {
	endpoint := api.Endpoint
	if p.Signed {
		var err error
		if endpoint, err = endpoint.Signed(); err != nil {
			log.Fatal().Err(err).Msg("failed to sign endpoint requests")
		}
	}

	if p.Url != "" {
		result, err := endpoint.ValidateUrl(ctx, p.Url)
		if err != nil {
			log.Fatal().Err(err).Msg("endpoint validation failed")
		}

		fmt.Println(view.Probe(result))
		return
	}

	if p.Stack == "" {
		log.Fatal().Msg("validate requires --stack or --url")
	}

	result, err := endpoint.Validate(ctx, p.Stack, p.Output)
	if err != nil {
		log.Fatal().Err(err).Str("stack", p.Stack).Msg("endpoint validation failed")
	}

	fmt.Println(view.Probe(result))
}

func RunLocal(ctx context.Context, api sdk.API, p *param.Local) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := api.Local.Serve(ctx, p.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to run container app locally")
	}
}

func LoginToEcr(ctx context.Context, api sdk.API, p *param.Login) {
	if err := api.Account.LoginToEcr(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to login to ECR")
	}
}

func ListImages(ctx context.Context, api sdk.API, p *param.Images) {
	if p.Tag != "" {
		inspect, err := api.Image.Inspect(ctx, p.Tag)
		if err != nil {
			log.Fatal().Err(err).Str("tag", p.Tag).Msg("failed to inspect image")
		}

		fmt.Println(view.Inspect(api.Image.Repository(), p.Tag, inspect))
		return
	}

	images, err := api.Image.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("repository", api.Image.Repository()).Msg("failed to list images")
	}

	fmt.Println(view.Images(images))
}
