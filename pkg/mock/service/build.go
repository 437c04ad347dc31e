package mock

import (
	"context"

	"github.com/mpaf/cdk-snippets/pkg/service/docker"

	dockertypes "github.com/docker/docker/api/types"
	"github.com/stretchr/testify/mock"
)

type MockBuildService struct {
	mock.Mock
}

func (m *MockBuildService) Login(ctx context.Context, registryUrl, username, password string) error {
	args := m.Called(ctx, registryUrl, username, password)
	return args.Error(0)
}

func (m *MockBuildService) Build(ctx context.Context, i docker.BuildInput) error {
	args := m.Called(ctx, i)
	return args.Error(0)
}

func (m *MockBuildService) Run(ctx context.Context, i docker.RunInput) error {
	args := m.Called(ctx, i)
	return args.Error(0)
}

func (m *MockBuildService) InspectByTag(ctx context.Context, image string) (dockertypes.ImageInspect, error) {
	args := m.Called(ctx, image)
	return args.Get(0).(dockertypes.ImageInspect), args.Error(1)
}
