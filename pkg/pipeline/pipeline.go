// Package pipeline wraps the stages in a self-mutating promotion flow.
package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mpaf/cdk-snippets/pkg/convention/config"
	"github.com/mpaf/cdk-snippets/pkg/stack"
	"github.com/mpaf/cdk-snippets/pkg/stage"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/pipelines"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/rs/zerolog/log"
)

const (
	EndpointEnvVar = "ENDPOINT_URL"
	BuildStageName = "DockerBuild"
)

type Props struct {
	awscdk.StackProps
	Config config.Config
	// App is the catalog name the synth step selects when the pipeline updates itself.
	App string
}

type LambdaPipelineStack struct {
	awscdk.Stack
	Pipeline pipelines.CodePipeline
	Synth    pipelines.ShellStep
	Stages   []*stage.Application
}

type DockerPipelineStack struct {
	awscdk.Stack
	Pipeline pipelines.CodePipeline
	Synth    pipelines.ShellStep
	Build    *stage.DockerBuild
	Stages   []*stage.AppRunner
}

// NewLambdaPipeline deploys one Application stage per configured stage, in order.
func NewLambdaPipeline(scope constructs.Construct, id string, props *Props) (*LambdaPipelineStack, error) {
	if props == nil {
		return nil, fmt.Errorf("pipeline %s requires props", id)
	}

	c := props.Config
	if err := c.Pipeline.Validate(); err != nil {
		return nil, err
	}

	s := awscdk.NewStack(scope, jsii.String(id), &props.StackProps)
	synth := synthStep(c, props.App)
	pipeline := newCodePipeline(s, c.Pipeline, synth)

	result := &LambdaPipelineStack{Stack: s, Pipeline: pipeline, Synth: synth}

	for _, st := range c.Pipeline.Stages {
		app := stage.NewApplication(s, st.Name, &stage.ApplicationProps{
			StageProps: awscdk.StageProps{Env: stack.Environment(c.Environment(st))},
			HandlerDir: c.Assets.Handler,
		})

		pipeline.AddStage(app.Stage, stageOptions(st, app.Stage, app.AppStack.Stack, app.AppStack.UrlOutput))
		result.Stages = append(result.Stages, app)

		log.Debug().Str("pipeline", id).Str("stage", st.Name).Msg("added lambda stage")
	}

	return result, nil
}

// NewSimpleLambdaPipeline deploys a single ungated Prod stage to the default environment.
func NewSimpleLambdaPipeline(scope constructs.Construct, id string, props *Props) (*LambdaPipelineStack, error) {
	if props == nil {
		return nil, fmt.Errorf("pipeline %s requires props", id)
	}

	simple := *props
	simple.Config.Pipeline.CrossAccountKeys = false
	simple.Config.Pipeline.Stages = []config.Stage{{Name: "Prod"}}

	return NewLambdaPipeline(scope, id, &simple)
}

// NewDockerPipeline builds the container image in the default environment, then rolls the
// runtime out stage by stage.
func NewDockerPipeline(scope constructs.Construct, id string, props *Props) (*DockerPipelineStack, error) {
	if props == nil {
		return nil, fmt.Errorf("pipeline %s requires props", id)
	}

	c := props.Config
	if err := c.Pipeline.Validate(); err != nil {
		return nil, err
	}

	if _, taken := c.Pipeline.Stage(BuildStageName); taken {
		return nil, fmt.Errorf("stage name %s is reserved for the image build", BuildStageName)
	}

	buildEnv := c.DefaultEnv()

	refs := make([]stack.ImageRef, len(c.Pipeline.Stages))
	for i, st := range c.Pipeline.Stages {
		ref, err := ImageFor(st, c.Environment(st), buildEnv, id)
		if err != nil {
			return nil, err
		}
		refs[i] = ref
	}

	s := awscdk.NewStack(scope, jsii.String(id), &props.StackProps)
	synth := synthStep(c, props.App)
	pipeline := newCodePipeline(s, c.Pipeline, synth)

	build := stage.NewDockerBuild(s, BuildStageName, &stage.DockerBuildProps{
		StageProps:    awscdk.StageProps{Env: stack.Environment(buildEnv)},
		Directory:     c.Assets.Root,
		File:          containerDockerfile(c.Assets),
		ExportName:    ExportName(id),
		ParameterName: ParameterName(id),
	})
	pipeline.AddStage(build.Stage, nil)

	result := &DockerPipelineStack{Stack: s, Pipeline: pipeline, Synth: synth, Build: build}

	for i, st := range c.Pipeline.Stages {
		runner, err := stage.NewAppRunner(s, st.Name, &stage.AppRunnerProps{
			StageProps:  awscdk.StageProps{Env: stack.Environment(c.Environment(st))},
			Image:       refs[i],
			ServiceName: ServiceName(st),
		})
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", st.Name, err)
		}

		pipeline.AddStage(runner.Stage, stageOptions(st, runner.Stage, runner.AppStack.Stack, runner.AppStack.ServiceUrl))
		result.Stages = append(result.Stages, runner)

		log.Debug().Str("pipeline", id).Str("stage", st.Name).Str("image", refs[i].String()).Msg("added apprunner stage")
	}

	return result, nil
}

// ImageFor decides how a runtime stage receives the image built in buildEnv.
// An empty image or "parameter" reads the published SSM parameter, "export" imports the
// exported output, anything else is taken as a literal image uri. Parameters and exports
// only resolve within the build environment.
func ImageFor(st config.Stage, env, buildEnv config.Env, pipelineId string) (stack.ImageRef, error) {
	switch st.Image {
	case "", "parameter":
		if env != buildEnv {
			return stack.ImageRef{}, fmt.Errorf("stage %s is in a different environment than the image build; set image", st.Name)
		}
		return stack.ImageFromParameter(ParameterName(pipelineId)), nil
	case "export":
		if env != buildEnv {
			return stack.ImageRef{}, fmt.Errorf("stage %s is in a different environment than the image build; set image", st.Name)
		}
		return stack.ImageFromExport(ExportName(pipelineId)), nil
	default:
		return stack.ImageFromString(st.Image), nil
	}
}

func ExportName(pipelineId string) string {
	return pipelineId + "-ImageURI"
}

func ParameterName(pipelineId string) string {
	return "/snippets/" + pipelineId + "/image-uri"
}

func ServiceName(st config.Stage) string {
	return stack.DefaultServiceName + "-" + strings.ToLower(st.Name)
}

// containerDockerfile locates the container Dockerfile relative to the repository root,
// which is the build context so the image can compile the module.
func containerDockerfile(assets config.Assets) string {
	rel, err := filepath.Rel(assets.Root, assets.Container)
	if err != nil {
		return "Dockerfile"
	}
	return filepath.ToSlash(filepath.Join(rel, "Dockerfile"))
}

func newCodePipeline(scope constructs.Construct, p config.Pipeline, synth pipelines.ShellStep) pipelines.CodePipeline {
	return pipelines.NewCodePipeline(scope, jsii.String("Pipeline"), &pipelines.CodePipelineProps{
		CrossAccountKeys: jsii.Bool(p.CrossAccountKeys),
		Synth:            synth,
	})
}

// synthStep rebuilds app from source. Its environment pins the inputs the source artifact lacks.
func synthStep(c config.Config, app string) pipelines.ShellStep {
	env := map[string]*string{}
	for name, value := range c.SynthEnv(app) {
		env[name] = jsii.String(value)
	}

	p := c.Pipeline
	return pipelines.NewShellStep(jsii.String("Synth"), &pipelines.ShellStepProps{
		Input:                  pipelines.CodePipelineSource_GitHub(jsii.String(p.Source.Repo), jsii.String(p.Source.Branch), nil),
		PrimaryOutputDirectory: jsii.String(p.Synth.PrimaryOutputDirectory),
		Commands:               jsii.Strings(p.Synth.Commands...),
		Env:                    &env,
	})
}

// stageOptions attaches the optional gates of st around a deployed stage.
func stageOptions(st config.Stage, deployed awscdk.Stage, gated awscdk.Stack, endpoint awscdk.CfnOutput) *pipelines.AddStageOpts {
	opts := &pipelines.AddStageOpts{}
	empty := true

	if st.ConfirmBroadening {
		opts.Pre = &[]pipelines.Step{
			pipelines.NewConfirmPermissionsBroadening(jsii.String("Check"), &pipelines.PermissionsBroadeningCheckProps{
				Stage: deployed,
			}),
		}
		empty = false
	}

	if st.Approval != "" {
		opts.StackSteps = &[]*pipelines.StackSteps{
			{
				Stack:     gated,
				ChangeSet: &[]pipelines.Step{pipelines.NewManualApprovalStep(jsii.String(st.Approval), nil)},
			},
		}
		empty = false
	}

	if len(st.Validate) > 0 {
		opts.Post = &[]pipelines.Step{
			pipelines.NewShellStep(jsii.String("Validate Endpoint"), &pipelines.ShellStepProps{
				Commands: jsii.Strings(st.Validate...),
				EnvFromCfnOutputs: &map[string]awscdk.CfnOutput{
					EndpointEnvVar: endpoint,
				},
			}),
		}
		empty = false
	}

	if empty {
		return nil
	}

	return opts
}
