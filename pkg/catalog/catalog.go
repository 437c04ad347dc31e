// Package catalog names the synthesizable apps and builds them into a cloud assembly.
package catalog

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mpaf/cdk-snippets/internal/util"
	"github.com/mpaf/cdk-snippets/pkg/convention/config"
	"github.com/mpaf/cdk-snippets/pkg/pipeline"
	"github.com/mpaf/cdk-snippets/pkg/stack"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/rs/zerolog/log"
)

const (
	VersionTag = "snippets:version"
	DefaultApp = "lambda-pipeline"
)

const handlerHint = "GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o dist/handler/bootstrap ./cmd/snippets"

type Entry struct {
	Name        string
	Description string
	StackId     string
	// Assets lists the paths that must exist before the app can be built.
	Assets func(config.Assets) []string
	// Hint tells how to produce missing assets.
	Hint  string
	build func(constructs.Construct, string, config.Config) error
}

var entries = map[string]Entry{
	"lambda": {
		Name:        "lambda",
		Description: "Request handler behind a REST gateway",
		StackId:     "LambdaApp",
		Assets:      handlerAssets,
		Hint:        handlerHint,
		build: func(scope constructs.Construct, id string, c config.Config) error {
			stack.NewLambdaApp(scope, id, &stack.LambdaAppProps{
				StackProps: awscdk.StackProps{Env: stack.Environment(c.DefaultEnv())},
				HandlerDir: c.Assets.Handler,
			})
			return nil
		},
	},
	"lambda-pipeline-simple": {
		Name:        "lambda-pipeline-simple",
		Description: "Pipeline deploying the lambda app to a single Prod stage",
		StackId:     "LambdaPipelineStack",
		Assets:      handlerAssets,
		Hint:        handlerHint,
		build: func(scope constructs.Construct, id string, c config.Config) error {
			props, err := pipelineProps(c, "lambda-pipeline-simple")
			if err != nil {
				return err
			}
			_, err = pipeline.NewSimpleLambdaPipeline(scope, id, props)
			return err
		},
	},
	"lambda-pipeline": {
		Name:        "lambda-pipeline",
		Description: "Pipeline promoting the lambda app through the configured stages",
		StackId:     "LambdaPipelineStack",
		Assets:      handlerAssets,
		Hint:        handlerHint,
		build: func(scope constructs.Construct, id string, c config.Config) error {
			props, err := pipelineProps(c, "lambda-pipeline")
			if err != nil {
				return err
			}
			_, err = pipeline.NewLambdaPipeline(scope, id, props)
			return err
		},
	},
	"docker-pipeline": {
		Name:        "docker-pipeline",
		Description: "Pipeline building the container image and running it on App Runner",
		StackId:     "DockerPipelineStack",
		Assets: func(a config.Assets) []string {
			return []string{filepath.Join(a.Container, "Dockerfile")}
		},
		build: func(scope constructs.Construct, id string, c config.Config) error {
			props, err := pipelineProps(c, "docker-pipeline")
			if err != nil {
				return err
			}
			_, err = pipeline.NewDockerPipeline(scope, id, props)
			return err
		},
	},
	"emr": {
		Name:        "emr",
		Description: "EMR cluster running spark executors in a docker image",
		StackId:     "EmrDockerStack",
		Assets: func(a config.Assets) []string {
			return []string{filepath.Join(a.Spark, "Dockerfile"), a.Bootstrap}
		},
		build: func(scope constructs.Construct, id string, c config.Config) error {
			env := c.DefaultEnv()
			if c.SubnetId() == "" && (env.Account == "" || env.Region == "") {
				return fmt.Errorf("emr needs an account and region to look up the default VPC, or a subnet in AWS_SUBNET_IDS")
			}

			_, err := stack.NewEmrDocker(scope, id, &stack.EmrDockerProps{
				StackProps:      awscdk.StackProps{Env: stack.Environment(env)},
				SparkDir:        c.Assets.Spark,
				BootstrapScript: c.Assets.Bootstrap,
				SubnetId:        c.SubnetId(),
			})
			return err
		},
	},
}

func handlerAssets(a config.Assets) []string {
	return []string{filepath.Join(a.Handler, "bootstrap")}
}

func pipelineProps(c config.Config, app string) (*pipeline.Props, error) {
	env := c.DefaultEnv()
	if env.Account == "" || env.Region == "" {
		return nil, fmt.Errorf("pipelines need an explicit account and region; set CDK_DEFAULT_ACCOUNT and CDK_DEFAULT_REGION")
	}

	return &pipeline.Props{
		StackProps: awscdk.StackProps{Env: stack.Environment(env)},
		Config:     c,
		App:        app,
	}, nil
}

func Names() []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Entries() []Entry {
	var all []Entry
	for _, name := range Names() {
		all = append(all, entries[name])
	}
	return all
}

func Lookup(name string) (Entry, error) {
	entry, ok := entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("unknown app %q, expected one of: %s", name, strings.Join(Names(), ", "))
	}
	return entry, nil
}

// MissingAssets returns the asset paths of the named app that do not exist on disk.
func MissingAssets(name string, c config.Config) ([]string, error) {
	entry, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, path := range entry.Assets(c.Assets) {
		if !util.PathExists(path) {
			missing = append(missing, path)
		}
	}

	return missing, nil
}

// Build instantiates the named app under scope.
func Build(scope constructs.Construct, name string, c config.Config) error {
	entry, err := Lookup(name)
	if err != nil {
		return err
	}

	missing, err := MissingAssets(name, c)
	if err != nil {
		return err
	}

	if len(missing) > 0 {
		err := fmt.Errorf("app %s is missing assets: %s", name, strings.Join(missing, ", "))
		if entry.Hint != "" {
			err = fmt.Errorf("%w (build them with: %s)", err, entry.Hint)
		}
		return err
	}

	log.Debug().Str("app", name).Str("stack", entry.StackId).Msg("building app")

	return entry.build(scope, entry.StackId, c)
}

// Synth builds the named app and writes the cloud assembly to outdir, or to the directory the
// cdk toolkit selected when outdir is blank. It returns the synthesized top-level stack names.
func Synth(name string, c config.Config, outdir string) ([]string, error) {
	props := &awscdk.AppProps{}
	if outdir != "" {
		props.Outdir = jsii.String(outdir)
	}

	app := awscdk.NewApp(props)

	if err := Build(app, name, c); err != nil {
		return nil, err
	}

	awscdk.Tags_Of(app).Add(jsii.String(VersionTag), jsii.String(util.Coalesce(c.Version, "dev")), nil)

	assembly := app.Synth(nil)

	var stacks []string
	for _, artifact := range *assembly.Stacks() {
		stacks = append(stacks, *artifact.StackName())
	}

	log.Info().Str("app", name).Str("dir", *assembly.Directory()).Strs("stacks", stacks).Msg("synthesized")

	return stacks, nil
}
