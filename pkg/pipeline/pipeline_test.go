package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/mpaf/cdk-snippets/internal/umwelt"
	"github.com/mpaf/cdk-snippets/pkg/convention/config"
	mocks "github.com/mpaf/cdk-snippets/pkg/mock/repo"
	"github.com/mpaf/cdk-snippets/pkg/stack"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/aws-cdk-go/awscdk/v2/pipelines"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	devEnv  = config.Env{Account: "111111111111", Region: "eu-west-1"}
	prodEnv = config.Env{Account: "222222222222", Region: "eu-west-1"}
)

func mockConfig(t *testing.T) config.Config {
	git, cleanup := mocks.MockRepository("mockOrg", "mockRepo", "main")
	t.Cleanup(cleanup)

	here := umwelt.Offline(git.Root, git, aws.Config{})
	here.Caller.Account = devEnv.Account
	here.Caller.Region = devEnv.Region

	c := config.FromHere(here)
	c.Pipeline.Stages = []config.Stage{
		{Name: "Dev"},
		{
			Name:              "Prod",
			Account:           prodEnv.Account,
			Region:            prodEnv.Region,
			ConfirmBroadening: true,
			Approval:          config.DefaultApproval,
			Validate:          []string{config.DefaultValidation},
		},
	}

	return c
}

func newProps(c config.Config, app string) *Props {
	return &Props{
		StackProps: awscdk.StackProps{Env: stack.Environment(c.DefaultEnv())},
		Config:     c,
		App:        app,
	}
}

func newApp(t *testing.T) awscdk.App {
	return awscdk.NewApp(&awscdk.AppProps{Outdir: jsii.String(t.TempDir())})
}

// pipelineStage matches a CodePipeline stage by name holding actions whose names match each pattern.
func pipelineStage(name string, actions ...string) interface{} {
	var matchers []interface{}
	for _, action := range actions {
		matchers = append(matchers, assertions.Match_ObjectLike(&map[string]interface{}{
			"Name": assertions.Match_StringLikeRegexp(jsii.String(action)),
		}))
	}

	return assertions.Match_ObjectLike(&map[string]interface{}{
		"Name":    name,
		"Actions": assertions.Match_ArrayWith(&matchers),
	})
}

func templateJson(t *testing.T, template assertions.Template) string {
	raw, err := json.Marshal(template.ToJSON())
	require.NoError(t, err)
	return string(raw)
}

func synthEnv(step pipelines.ShellStep) map[string]string {
	env := map[string]string{}
	if step.Env() == nil {
		return env
	}
	for name, value := range *step.Env() {
		env[name] = *value
	}
	return env
}

func TestNewLambdaPipeline(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*testing.T) config.Config
		test  func(*testing.T, *LambdaPipelineStack, error)
	}{
		{
			name:  "Dev and gated Prod",
			setup: mockConfig,
			test: func(t *testing.T, p *LambdaPipelineStack, err error) {
				require.NoError(t, err)
				require.Len(t, p.Stages, 2)

				assert.Equal(t, "Dev-LambdaApp", *p.Stages[0].AppStack.StackName())
				assert.Equal(t, prodEnv.Account, *p.Stages[1].AppStack.Account())

				template := assertions.Template_FromStack(p.Stack, nil)
				template.ResourceCountIs(jsii.String("AWS::CodePipeline::Pipeline"), jsii.Number(1))
				template.HasResourceProperties(jsii.String("AWS::CodePipeline::Pipeline"), map[string]interface{}{
					"Stages": assertions.Match_ArrayWith(&[]interface{}{
						assertions.Match_ObjectLike(&map[string]interface{}{"Name": "Source"}),
						assertions.Match_ObjectLike(&map[string]interface{}{"Name": "Dev"}),
						pipelineStage("Prod", "Check", "ChangeSet.Approval", "Validate.Endpoint"),
					}),
				})
				template.HasResourceProperties(jsii.String("AWS::KMS::Key"), map[string]interface{}{})

				rendered := templateJson(t, template)
				assert.Contains(t, rendered, EndpointEnvVar)
				assert.Contains(t, rendered, config.DefaultValidation)
			},
		},
		{
			name: "Ungated stages",
			setup: func(t *testing.T) config.Config {
				c := mockConfig(t)
				c.Pipeline.Stages = []config.Stage{{Name: "Dev"}, {Name: "Prod"}}
				return c
			},
			test: func(t *testing.T, p *LambdaPipelineStack, err error) {
				require.NoError(t, err)
				require.Len(t, p.Stages, 2)

				template := assertions.Template_FromStack(p.Stack, nil)
				template.HasResourceProperties(jsii.String("AWS::CodePipeline::Pipeline"), map[string]interface{}{
					"Stages": assertions.Match_ArrayWith(&[]interface{}{
						pipelineStage("Prod", "Deploy"),
					}),
				})
				assert.NotContains(t, templateJson(t, template), EndpointEnvVar)
			},
		},
		{
			name: "Invalid stages",
			setup: func(t *testing.T) config.Config {
				c := mockConfig(t)
				c.Pipeline.Stages = []config.Stage{{Name: "Dev"}, {Name: "Dev"}}
				return c
			},
			test: func(t *testing.T, p *LambdaPipelineStack, err error) {
				assert.ErrorContains(t, err, "declared more than once")
				assert.Nil(t, p)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.setup(t)
			p, err := NewLambdaPipeline(newApp(t), "LambdaPipelineStack", newProps(c, "lambda-pipeline"))
			tc.test(t, p, err)
		})
	}
}

func TestNewSimpleLambdaPipeline(t *testing.T) {
	c := mockConfig(t)

	p, err := NewSimpleLambdaPipeline(newApp(t), "LambdaPipelineStack", newProps(c, "lambda-pipeline-simple"))
	require.NoError(t, err)
	require.Len(t, p.Stages, 1)
	assert.Equal(t, "lambda-pipeline-simple", synthEnv(p.Synth)[config.EnvApp])
	assert.Equal(t, "Prod-LambdaApp", *p.Stages[0].AppStack.StackName())
	assert.Equal(t, devEnv.Account, *p.Stages[0].AppStack.Account())

	template := assertions.Template_FromStack(p.Stack, nil)
	template.ResourceCountIs(jsii.String("AWS::KMS::Key"), jsii.Number(0))

	// the caller's configuration is left untouched
	assert.Len(t, c.Pipeline.Stages, 2)
	assert.True(t, c.Pipeline.CrossAccountKeys)

	_, err = NewSimpleLambdaPipeline(newApp(t), "LambdaPipelineStack", nil)
	assert.Error(t, err)
}

func TestNewDockerPipeline(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*testing.T) config.Config
		test  func(*testing.T, *DockerPipelineStack, error)
	}{
		{
			name: "Prod pulls a literal image",
			setup: func(t *testing.T) config.Config {
				c := mockConfig(t)
				c.Pipeline.Stages[1].Image = "222222222222.dkr.ecr.eu-west-1.amazonaws.com/app:latest"
				return c
			},
			test: func(t *testing.T, p *DockerPipelineStack, err error) {
				require.NoError(t, err)
				require.NotNil(t, p.Build)
				require.Len(t, p.Stages, 2)

				dev := assertions.Template_FromStack(p.Stages[0].AppStack.Stack, nil)
				dev.HasResourceProperties(jsii.String("AWS::AppRunner::Service"), map[string]interface{}{
					"ServiceName": "apprunner-sample-dev",
				})
				dev.HasParameter(jsii.String("*"), map[string]interface{}{
					"Default": ParameterName("DockerPipelineStack"),
				})

				prod := assertions.Template_FromStack(p.Stages[1].AppStack.Stack, nil)
				prod.HasResourceProperties(jsii.String("AWS::AppRunner::Service"), map[string]interface{}{
					"ServiceName": "apprunner-sample-prod",
					"SourceConfiguration": map[string]interface{}{
						"ImageRepository": map[string]interface{}{
							"ImageIdentifier": "222222222222.dkr.ecr.eu-west-1.amazonaws.com/app:latest",
						},
					},
				})

				build := assertions.Template_FromStack(p.Build.Stack.Stack, nil)
				build.HasOutput(jsii.String("ImageURI"), map[string]interface{}{
					"Export": map[string]interface{}{"Name": ExportName("DockerPipelineStack")},
				})

				template := assertions.Template_FromStack(p.Stack, nil)
				template.HasResourceProperties(jsii.String("AWS::CodePipeline::Pipeline"), map[string]interface{}{
					"Stages": assertions.Match_ArrayWith(&[]interface{}{
						assertions.Match_ObjectLike(&map[string]interface{}{"Name": BuildStageName}),
						assertions.Match_ObjectLike(&map[string]interface{}{"Name": "Dev"}),
						pipelineStage("Prod", "Check", "ChangeSet.Approval", "Validate.Endpoint"),
					}),
				})
				assert.Contains(t, templateJson(t, template), EndpointEnvVar)
				assert.Equal(t, "docker-pipeline", synthEnv(p.Synth)[config.EnvApp])
			},
		},
		{
			name:  "Prod in another environment without image",
			setup: mockConfig,
			test: func(t *testing.T, p *DockerPipelineStack, err error) {
				assert.EqualError(t, err, "stage Prod is in a different environment than the image build; set image")
				assert.Nil(t, p)
			},
		},
		{
			name: "Build stage name is reserved",
			setup: func(t *testing.T) config.Config {
				c := mockConfig(t)
				c.Pipeline.Stages = []config.Stage{{Name: BuildStageName}}
				return c
			},
			test: func(t *testing.T, p *DockerPipelineStack, err error) {
				assert.ErrorContains(t, err, "reserved")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.setup(t)
			p, err := NewDockerPipeline(newApp(t), "DockerPipelineStack", newProps(c, "docker-pipeline"))
			tc.test(t, p, err)
		})
	}
}

func TestSynthStepEnv(t *testing.T) {
	t.Setenv(config.EnvSourceRepo, "")
	t.Setenv(config.EnvSourceBranch, "")

	c := mockConfig(t)

	p, err := NewLambdaPipeline(newApp(t), "LambdaPipelineStack", newProps(c, "lambda-pipeline"))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		config.EnvApp:          "lambda-pipeline",
		config.EnvSourceRepo:   "mockOrg/mockRepo",
		config.EnvSourceBranch: "main",
		config.EnvProdAccount:  prodEnv.Account,
		config.EnvProdRegion:   prodEnv.Region,
	}, synthEnv(p.Synth))

	rendered := templateJson(t, assertions.Template_FromStack(p.Stack, nil))
	assert.Contains(t, rendered, config.EnvApp)
	assert.Contains(t, rendered, config.EnvProdAccount)
}

func TestImageFor(t *testing.T) {
	cases := []struct {
		name     string
		stage    config.Stage
		env      config.Env
		expected string
		wantErr  bool
	}{
		{name: "default is parameter", stage: config.Stage{Name: "Dev"}, env: devEnv, expected: "parameter /snippets/p/image-uri"},
		{name: "explicit parameter", stage: config.Stage{Name: "Dev", Image: "parameter"}, env: devEnv, expected: "parameter /snippets/p/image-uri"},
		{name: "export", stage: config.Stage{Name: "Dev", Image: "export"}, env: devEnv, expected: "export p-ImageURI"},
		{name: "literal anywhere", stage: config.Stage{Name: "Prod", Image: "repo/app:1"}, env: prodEnv, expected: "uri repo/app:1"},
		{name: "parameter across environments", stage: config.Stage{Name: "Prod"}, env: prodEnv, wantErr: true},
		{name: "export across environments", stage: config.Stage{Name: "Prod", Image: "export"}, env: prodEnv, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ref, err := ImageFor(tc.stage, tc.env, devEnv, "p")
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ref.String())
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, "apprunner-sample-staging", ServiceName(config.Stage{Name: "Staging"}))
	assert.Equal(t, "Pipe-ImageURI", ExportName("Pipe"))
	assert.Equal(t, "/snippets/Pipe/image-uri", ParameterName("Pipe"))
	assert.Equal(t, "assets/container/Dockerfile", containerDockerfile(config.Assets{Root: "/repo", Container: "/repo/assets/container"}))
}
