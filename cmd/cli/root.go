package cli

import (
	"context"
	"errors"
	"os"

	"github.com/mpaf/cdk-snippets/cmd/cli/router"
	"github.com/mpaf/cdk-snippets/internal/gitlib"
	"github.com/mpaf/cdk-snippets/internal/umwelt"
	"github.com/mpaf/cdk-snippets/internal/util"
	"github.com/mpaf/cdk-snippets/pkg/convention/config"
	"github.com/mpaf/cdk-snippets/pkg/sdk"

	"github.com/alexflint/go-arg"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

func Invoke(ctx context.Context) {
	var err error
	var cfg config.Config
	var api sdk.API

	ctx, span := otel.Tracer("").Start(ctx, "cli")
	defer span.End()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Caller().Logger()
	util.SetLogLevel()

	var root router.Root
	arg.MustParse(&root)

	if root.Standalone() {
		root.HandleStandalone(ctx)
		return
	}

	configEnv(root)

	retryLogger := util.RetryLogger{
		Log: &log.Logger,
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithLogger(&retryLogger),
		awsconfig.WithClientLogMode(aws.LogRetries))

	if err != nil {
		log.Fatal().Err(err).Msg("failed to load AWS configuration")
	}

	if cfg, err = discover(ctx, root, awsConfig); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration from cwd")
	}

	if cfg, err = cfg.LoadPipeline(root.GlobalOpts.Config); err != nil {
		log.Fatal().Err(err).Str("file", root.GlobalOpts.Config).Msg("failed to load pipeline configuration")
	}

	if api, err = sdk.Init(ctx, awsConfig, cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize SDK")
	}

	root.Handle(ctx, cfg, api)
}

// discover resolves the environment. Synth falls back to variables alone when AWS cannot be reached.
func discover(ctx context.Context, root router.Root, awsConfig aws.Config) (config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.Config{}, err
	}

	git, err := gitlib.FromCwd()
	if errors.Is(err, gitlib.ErrNotRepository) {
		log.Debug().Str("cwd", cwd).Msg("not a git repository")
	} else if err != nil {
		return config.Config{}, err
	}

	if root.GlobalOpts.Offline {
		return config.FromHere(umwelt.Offline(cwd, git, awsConfig)), nil
	}

	here, err := umwelt.FromCwd(ctx, cwd, git, awsConfig, ecr.NewFromConfig(awsConfig), sts.NewFromConfig(awsConfig), ec2.NewFromConfig(awsConfig))
	if err != nil && root.Synth != nil {
		log.Warn().Err(err).Msg("environment discovery failed, synthesizing offline")
		return config.FromHere(umwelt.Offline(cwd, git, awsConfig)), nil
	}

	if err != nil {
		return config.Config{}, err
	}

	return config.FromHere(here), nil
}

// Take options given to the CLI and export them to their respective environment variables.
func configEnv(root router.Root) {
	exports := map[string]string{
		umwelt.EnvDefaultAccount: root.GlobalOpts.Account,
		umwelt.EnvDefaultRegion:  root.GlobalOpts.Region,
		umwelt.EnvEcrId:          root.GlobalOpts.EcrId,
		umwelt.EnvEcrRegion:      root.GlobalOpts.EcrRegion,
		umwelt.EnvSnIds:          root.GlobalOpts.SubnetIds,
		umwelt.EnvVpcId:          root.GlobalOpts.VpcId,
	}

	for name, value := range exports {
		if value != "" {
			os.Setenv(name, value)
		}
	}
}
