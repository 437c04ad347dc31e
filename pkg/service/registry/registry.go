package registry

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/ecr"
)

// Qualifier of the default cdk bootstrap, which names the container asset repository.
const DefaultQualifier = "hnb659fds"

type EcrClient interface {
	BatchGetImage(ctx context.Context, params *ecr.BatchGetImageInput, optFns ...func(*ecr.Options)) (*ecr.BatchGetImageOutput, error)
	GetDownloadUrlForLayer(ctx context.Context, params *ecr.GetDownloadUrlForLayerInput, optFns ...func(*ecr.Options)) (*ecr.GetDownloadUrlForLayerOutput, error)
	DescribeImages(ctx context.Context, params *ecr.DescribeImagesInput, optFns ...func(*ecr.Options)) (*ecr.DescribeImagesOutput, error)
	GetAuthorizationToken(ctx context.Context, params *ecr.GetAuthorizationTokenInput, optFns ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error)
}

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	Ecr  EcrClient
	Http HttpClient
}

type Service struct {
	Client Client
}

func FromClients(ecrClient EcrClient, httpClient HttpClient) Service {
	return Service{
		Client: Client{
			Ecr:  ecrClient,
			Http: httpClient,
		},
	}
}

func Url(registryId, region string) string {
	return registryId + ".dkr.ecr." + region + ".amazonaws.com"
}

// AssetRepository is the repository cdk publishes docker image assets to.
func AssetRepository(account, region string) string {
	return "cdk-" + DefaultQualifier + "-container-assets-" + account + "-" + region
}
