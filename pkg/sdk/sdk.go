package sdk

import (
	"context"
	"net/http"

	// config
	"github.com/mpaf/cdk-snippets/pkg/convention/config"

	// services
	"github.com/mpaf/cdk-snippets/pkg/service/docker"
	"github.com/mpaf/cdk-snippets/pkg/service/outputs"
	"github.com/mpaf/cdk-snippets/pkg/service/probe"
	"github.com/mpaf/cdk-snippets/pkg/service/registry"
	"github.com/mpaf/cdk-snippets/pkg/service/sigv4"

	// conventions
	"github.com/mpaf/cdk-snippets/pkg/convention/account"
	"github.com/mpaf/cdk-snippets/pkg/convention/endpoint"
	"github.com/mpaf/cdk-snippets/pkg/convention/image"
	"github.com/mpaf/cdk-snippets/pkg/convention/local"

	// clients
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/rs/zerolog/log"
)

type Clients struct {
	EcrClient            *ecr.Client
	CloudFormationClient *cloudformation.Client
	HttpClient           *http.Client
	SigningClient        sigv4.Client
}

type Services struct {
	Docker   docker.Service
	Registry registry.Service
	Outputs  outputs.Service
	Probe    probe.Service
	Signed   probe.Service
}

type Conventions struct {
	Account  account.Convention
	Endpoint endpoint.Convention
	Image    image.Convention
	Local    local.Convention
}

type API struct {
	Conventions
	Config config.Config
}

func Init(ctx context.Context, awsConfig aws.Config, config config.Config) (API, error) {
	clients, err := InitClients(ctx, awsConfig)
	if err != nil {
		return API{}, err
	}

	services, err := InitServices(ctx, clients)
	if err != nil {
		return API{}, err
	}

	conventions, err := InitConventions(ctx, config, services)
	if err != nil {
		return API{}, err
	}

	return API{
		Conventions: conventions,
		Config:      config,
	}, nil
}

func InitConventions(ctx context.Context, config config.Config, services Services) (Conventions, error) {
	return Conventions{
		Account:  account.FromServices(config, services.Docker, services.Registry),
		Endpoint: endpoint.FromServices(config, services.Outputs, services.Probe).WithSignedProbe(services.Signed),
		Image:    image.FromServices(config, services.Registry),
		Local:    local.FromServices(config, services.Docker),
	}, nil
}

func InitServices(ctx context.Context, clients Clients) (Services, error) {
	// only login and local need docker; synth and friends run without it
	d, err := docker.FromPath(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("docker unavailable")
	}

	return Services{
		Docker:   d,
		Registry: registry.FromClients(clients.EcrClient, clients.HttpClient),
		Outputs:  outputs.FromClients(clients.CloudFormationClient),
		Probe:    probe.FromClient(clients.HttpClient),
		Signed:   probe.FromClient(clients.SigningClient),
	}, nil
}

func InitClients(ctx context.Context, awsConfig aws.Config) (Clients, error) {
	httpClient := &http.Client{Timeout: probe.RequestTimeout}

	return Clients{
		EcrClient:            ecr.NewFromConfig(awsConfig),
		CloudFormationClient: cloudformation.NewFromConfig(awsConfig),
		HttpClient:           httpClient,
		SigningClient:        sigv4.FromClients(httpClient, awsConfig.Credentials, awsConfig.Region),
	}, nil
}
