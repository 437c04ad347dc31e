package stack

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapprunner"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

const (
	DefaultServiceName = "apprunner-sample"
	DefaultServicePort = "80"
)

type AppRunnerStackProps struct {
	awscdk.StackProps
	Image       ImageRef
	ServiceName string
	Port        string
	// RoleName pins the access role name. Blank lets CloudFormation generate one.
	RoleName string
}

// AppRunnerStack runs an ECR image on the managed container runtime.
type AppRunnerStack struct {
	awscdk.Stack
	Role       awsiam.Role
	Service    awsapprunner.CfnService
	ServiceUrl awscdk.CfnOutput
}

func NewAppRunnerStack(scope constructs.Construct, id string, props *AppRunnerStackProps) (*AppRunnerStack, error) {
	if props == nil {
		props = &AppRunnerStackProps{}
	}

	if err := props.Image.Validate(); err != nil {
		return nil, err
	}

	stack := awscdk.NewStack(scope, &id, &props.StackProps)

	roleProps := &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("build.apprunner.amazonaws.com"), nil),
	}
	if props.RoleName != "" {
		roleProps.RoleName = jsii.String(props.RoleName)
	}

	role := awsiam.NewRole(stack, jsii.String("apprunner-role"), roleProps)

	role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("ecr:*"),
		Effect:    awsiam.Effect_ALLOW,
		Resources: jsii.Strings("*"),
	}))

	port := DefaultServicePort
	if props.Port != "" {
		port = props.Port
	}

	name := DefaultServiceName
	if props.ServiceName != "" {
		name = props.ServiceName
	}

	service := awsapprunner.NewCfnService(stack, jsii.String("apprunner"), &awsapprunner.CfnServiceProps{
		SourceConfiguration: &awsapprunner.CfnService_SourceConfigurationProperty{
			AuthenticationConfiguration: &awsapprunner.CfnService_AuthenticationConfigurationProperty{
				AccessRoleArn: role.RoleArn(),
			},
			ImageRepository: &awsapprunner.CfnService_ImageRepositoryProperty{
				ImageIdentifier:     props.Image.Identifier(stack),
				ImageRepositoryType: jsii.String("ECR"),
				ImageConfiguration: &awsapprunner.CfnService_ImageConfigurationProperty{
					Port: jsii.String(port),
				},
			},
		},
		ServiceName: jsii.String(name),
	})

	// the role policy must exist before the service tries to pull
	service.Node().AddDependency(role)

	serviceUrl := awscdk.NewCfnOutput(stack, jsii.String("ServiceUrl"), &awscdk.CfnOutputProps{
		Value:       awscdk.Fn_Join(jsii.String(""), jsii.Strings("https://", *service.AttrServiceUrl())),
		Description: jsii.String("Public endpoint of the service"),
	})

	return &AppRunnerStack{
		Stack:      stack,
		Role:       role,
		Service:    service,
		ServiceUrl: serviceUrl,
	}, nil
}
