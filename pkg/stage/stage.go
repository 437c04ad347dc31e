// Package stage groups stacks into units a pipeline deploys to one environment.
package stage

import (
	"github.com/mpaf/cdk-snippets/pkg/stack"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

type ApplicationProps struct {
	awscdk.StageProps
	HandlerDir string
}

type Application struct {
	awscdk.Stage
	AppStack *stack.LambdaApp
}

func NewApplication(scope constructs.Construct, id string, props *ApplicationProps) *Application {
	if props == nil {
		props = &ApplicationProps{}
	}

	s := awscdk.NewStage(scope, jsii.String(id), &props.StageProps)

	app := stack.NewLambdaApp(s, "LambdaApp", &stack.LambdaAppProps{
		HandlerDir: props.HandlerDir,
	})

	return &Application{
		Stage:    s,
		AppStack: app,
	}
}

type DockerBuildProps struct {
	awscdk.StageProps
	Directory string
	File      string
	// ExportName and ParameterName are the handoffs published for later stages.
	ExportName    string
	ParameterName string
}

type DockerBuild struct {
	awscdk.Stage
	Stack         *stack.DockerStack
	ImageURI      awscdk.CfnOutput
	ExportName    string
	ParameterName string
}

func NewDockerBuild(scope constructs.Construct, id string, props *DockerBuildProps) *DockerBuild {
	if props == nil {
		props = &DockerBuildProps{}
	}

	s := awscdk.NewStage(scope, jsii.String(id), &props.StageProps)

	build := stack.NewDockerStack(s, "DockerBuild", &stack.DockerStackProps{
		Directory:     props.Directory,
		File:          props.File,
		ExportName:    props.ExportName,
		ParameterName: props.ParameterName,
	})

	return &DockerBuild{
		Stage:         s,
		Stack:         build,
		ImageURI:      build.ImageURI,
		ExportName:    props.ExportName,
		ParameterName: props.ParameterName,
	}
}

type AppRunnerProps struct {
	awscdk.StageProps
	Image       stack.ImageRef
	ServiceName string
	Port        string
}

type AppRunner struct {
	awscdk.Stage
	AppStack *stack.AppRunnerStack
}

func NewAppRunner(scope constructs.Construct, id string, props *AppRunnerProps) (*AppRunner, error) {
	if props == nil {
		props = &AppRunnerProps{}
	}

	if err := props.Image.Validate(); err != nil {
		return nil, err
	}

	s := awscdk.NewStage(scope, jsii.String(id), &props.StageProps)

	app, err := stack.NewAppRunnerStack(s, "AppRunner", &stack.AppRunnerStackProps{
		Image:       props.Image,
		ServiceName: props.ServiceName,
		Port:        props.Port,
	})
	if err != nil {
		return nil, err
	}

	return &AppRunner{
		Stage:    s,
		AppStack: app,
	}, nil
}
