// Package stack declares the deployable units: a serverless app behind a gateway, a container
// image build, a managed container runtime and a big-data cluster.
package stack

import (
	"github.com/mpaf/cdk-snippets/pkg/convention/config"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
)

// Environment converts an account/region pair. A blank pair yields an environment-agnostic stack.
func Environment(env config.Env) *awscdk.Environment {
	if env.Account == "" && env.Region == "" {
		return nil
	}

	e := &awscdk.Environment{}
	if env.Account != "" {
		e.Account = jsii.String(env.Account)
	}
	if env.Region != "" {
		e.Region = jsii.String(env.Region)
	}

	return e
}
