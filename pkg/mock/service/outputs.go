package mock

import (
	"context"

	"github.com/mpaf/cdk-snippets/pkg/service/outputs"
	"github.com/mpaf/cdk-snippets/pkg/service/probe"

	"github.com/stretchr/testify/mock"
)

type MockOutputsService struct {
	mock.Mock
}

func (m *MockOutputsService) Describe(ctx context.Context, stackName string) (outputs.Stack, error) {
	args := m.Called(ctx, stackName)
	return args.Get(0).(outputs.Stack), args.Error(1)
}

func (m *MockOutputsService) Value(ctx context.Context, stackName, key string) (string, error) {
	args := m.Called(ctx, stackName, key)
	return args.String(0), args.Error(1)
}

type MockProbeService struct {
	mock.Mock
}

func (m *MockProbeService) Get(ctx context.Context, url string) (probe.Result, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(probe.Result), args.Error(1)
}
