package mock

import (
	"context"

	"github.com/mpaf/cdk-snippets/pkg/service/registry"

	dockertypes "github.com/docker/docker/api/types"
	"github.com/stretchr/testify/mock"
)

type MockRegistryService struct {
	mock.Mock
}

func (m *MockRegistryService) Token(ctx context.Context, registryId string) (string, error) {
	args := m.Called(ctx, registryId)
	return args.String(0), args.Error(1)
}

func (m *MockRegistryService) List(ctx context.Context, registryId, repository string) ([]registry.Image, error) {
	args := m.Called(ctx, registryId, repository)
	return args.Get(0).([]registry.Image), args.Error(1)
}

func (m *MockRegistryService) InspectByTag(ctx context.Context, registryId, repository, tag string) (dockertypes.ImageInspect, error) {
	args := m.Called(ctx, registryId, repository, tag)
	return args.Get(0).(dockertypes.ImageInspect), args.Error(1)
}
