package stack

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigateway"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

const GatewayDescription = "Endpoint for a simple Lambda-powered web service"

type LambdaAppProps struct {
	awscdk.StackProps
	// HandlerDir holds the compiled bootstrap binary.
	HandlerDir string
}

// LambdaApp is a request handler fronted by a REST gateway.
type LambdaApp struct {
	awscdk.Stack
	Handler   awslambda.Function
	Gateway   awsapigateway.LambdaRestApi
	UrlOutput awscdk.CfnOutput
}

func NewLambdaApp(scope constructs.Construct, id string, props *LambdaAppProps) *LambdaApp {
	if props == nil {
		props = &LambdaAppProps{}
	}

	stack := awscdk.NewStack(scope, &id, &props.StackProps)

	handler := awslambda.NewFunction(stack, jsii.String("Lambda"), &awslambda.FunctionProps{
		Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
		Architecture: awslambda.Architecture_ARM_64(),
		Handler:      jsii.String("bootstrap"),
		Code:         awslambda.Code_FromAsset(jsii.String(props.HandlerDir), nil),
		Environment: &map[string]*string{
			"LOG_LEVEL": jsii.String("info"),
		},
	})

	// An API Gateway to make the Lambda web-accessible
	gw := awsapigateway.NewLambdaRestApi(stack, jsii.String("Gateway"), &awsapigateway.LambdaRestApiProps{
		Description: jsii.String(GatewayDescription),
		Handler:     handler,
	})

	url := awscdk.NewCfnOutput(stack, jsii.String("Url"), &awscdk.CfnOutputProps{
		Value:       gw.Url(),
		Description: jsii.String("Public endpoint of the gateway"),
	})

	return &LambdaApp{
		Stack:     stack,
		Handler:   handler,
		Gateway:   gw,
		UrlOutput: url,
	}
}
