package stack

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecrassets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsssm"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// Paths never part of an image build context.
var ContextExcludes = []string{"cdk.out", "dist", ".git", "_examples"}

type DockerStackProps struct {
	awscdk.StackProps
	// Directory is the build context. File is the Dockerfile relative to it.
	Directory string
	File      string
	// ExportName, when set, exports the image uri for Fn::ImportValue.
	ExportName string
	// ParameterName, when set, publishes the image uri to SSM.
	ParameterName string
}

// DockerStack builds the container image into the bootstrap asset repository.
type DockerStack struct {
	awscdk.Stack
	Image    awsecrassets.DockerImageAsset
	ImageURI awscdk.CfnOutput
}

func NewDockerStack(scope constructs.Construct, id string, props *DockerStackProps) *DockerStack {
	if props == nil {
		props = &DockerStackProps{}
	}

	stack := awscdk.NewStack(scope, &id, &props.StackProps)

	assetProps := &awsecrassets.DockerImageAssetProps{
		Directory: jsii.String(props.Directory),
		Exclude:   jsii.Strings(ContextExcludes...),
		Platform:  awsecrassets.Platform_LINUX_AMD64(),
	}
	if props.File != "" {
		assetProps.File = jsii.String(props.File)
	}

	image := awsecrassets.NewDockerImageAsset(stack, jsii.String("hello-world-container"), assetProps)

	outputProps := &awscdk.CfnOutputProps{
		Value:       image.ImageUri(),
		Description: jsii.String("Container image uri"),
	}
	if props.ExportName != "" {
		outputProps.ExportName = jsii.String(props.ExportName)
	}

	imageURI := awscdk.NewCfnOutput(stack, jsii.String("ImageURI"), outputProps)

	if props.ParameterName != "" {
		awsssm.NewStringParameter(stack, jsii.String("ImageURIParameter"), &awsssm.StringParameterProps{
			ParameterName: jsii.String(props.ParameterName),
			StringValue:   image.ImageUri(),
			Description:   jsii.String("Container image uri handed to the runtime stages"),
		})
	}

	return &DockerStack{
		Stack:    stack,
		Image:    image,
		ImageURI: imageURI,
	}
}
