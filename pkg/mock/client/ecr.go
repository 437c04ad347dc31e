package mocks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ecr"

	"github.com/stretchr/testify/mock"
)

type MockECRClient struct {
	mock.Mock
}

func (m *MockECRClient) DescribeRegistry(ctx context.Context, params *ecr.DescribeRegistryInput, optFns ...func(*ecr.Options)) (*ecr.DescribeRegistryOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*ecr.DescribeRegistryOutput), args.Error(1)
}

func (m *MockECRClient) GetAuthorizationToken(ctx context.Context, params *ecr.GetAuthorizationTokenInput, optFns ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*ecr.GetAuthorizationTokenOutput), args.Error(1)
}

func (m *MockECRClient) BatchGetImage(ctx context.Context, params *ecr.BatchGetImageInput, optFns ...func(*ecr.Options)) (*ecr.BatchGetImageOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*ecr.BatchGetImageOutput), args.Error(1)
}

func (m *MockECRClient) GetDownloadUrlForLayer(ctx context.Context, params *ecr.GetDownloadUrlForLayerInput, optFns ...func(*ecr.Options)) (*ecr.GetDownloadUrlForLayerOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*ecr.GetDownloadUrlForLayerOutput), args.Error(1)
}

func (m *MockECRClient) DescribeImages(ctx context.Context, params *ecr.DescribeImagesInput, optFns ...func(*ecr.Options)) (*ecr.DescribeImagesOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*ecr.DescribeImagesOutput), args.Error(1)
}
