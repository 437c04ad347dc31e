package router

import (
	"context"
	"os"

	"github.com/mpaf/cdk-snippets/cmd/cli/method"
	"github.com/mpaf/cdk-snippets/cmd/cli/param"
	"github.com/mpaf/cdk-snippets/pkg/convention/config"
	"github.com/mpaf/cdk-snippets/pkg/sdk"

	"github.com/alexflint/go-arg"
)

type Root struct {
	Synth    *param.Synth    `arg:"subcommand:synth" help:"Synthesize an app into a cloud assembly"`
	Apps     *param.Apps     `arg:"subcommand:apps" help:"List synthesizable apps"`
	Config   *param.Config   `arg:"subcommand:config" help:"Print configuration"`
	Outputs  *param.Outputs  `arg:"subcommand:outputs" help:"Print the outputs of a deployed stack"`
	Validate *param.Validate `arg:"subcommand:validate" help:"Probe a deployed endpoint until it answers"`
	Serve    *param.Serve    `arg:"subcommand:serve" help:"Run the container app"`
	Local    *param.Local    `arg:"subcommand:local" help:"Build and run the container app with docker"`
	Login    *param.Login    `arg:"subcommand:login" help:"Log docker into the registry"`
	Images   *param.Images   `arg:"subcommand:images" help:"List container asset images"`
	param.GlobalOpts
}

// Standalone reports whether the command runs without discovering the environment.
func (c Root) Standalone() bool {
	return c.Apps != nil || c.Serve != nil
}

func (c Root) HandleStandalone(ctx context.Context) {
	switch {
	case c.Apps != nil:
		method.ListApps(ctx, c.Apps)

	case c.Serve != nil:
		method.ServeApp(ctx, c.Serve)
	}
}

func (c Root) Handle(ctx context.Context, cfg config.Config, api sdk.API) {
	switch {
	case c.Synth != nil:
		method.SynthApp(ctx, cfg, c.Synth)

	case c.Config != nil:
		method.PrintConfig(ctx, cfg, c.Config)

	case c.Outputs != nil:
		method.PrintOutputs(ctx, api, c.Outputs)

	case c.Validate != nil:
		method.ValidateEndpoint(ctx, api, c.Validate)

	case c.Local != nil:
		method.RunLocal(ctx, api, c.Local)

	case c.Login != nil:
		method.LoginToEcr(ctx, api, c.Login)

	case c.Images != nil:
		method.ListImages(ctx, api, c.Images)

	default:
		arg.MustParse(&c).WriteHelp(os.Stdout)
	}
}
