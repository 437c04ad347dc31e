package outputs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/smithy-go"
)

var (
	ErrStackNotFound  = errors.New("stack not found")
	ErrOutputNotFound = errors.New("output not found")
)

type CloudFormationClient interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

type Client struct {
	CloudFormation CloudFormationClient
}

type Service struct {
	Client Client
}

type Stack struct {
	Name        string
	Status      string
	LastUpdated time.Time
	Outputs     map[string]string
}

func FromClients(cfnClient CloudFormationClient) Service {
	return Service{
		Client: Client{
			CloudFormation: cfnClient,
		},
	}
}

func (s Service) Describe(ctx context.Context, stackName string) (Stack, error) {
	output, err := s.Client.CloudFormation.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ValidationError" && strings.Contains(apiErr.ErrorMessage(), "does not exist") {
		return Stack{}, fmt.Errorf("%w: %s", ErrStackNotFound, stackName)
	}

	if err != nil {
		return Stack{}, err
	}

	if len(output.Stacks) == 0 {
		return Stack{}, fmt.Errorf("%w: %s", ErrStackNotFound, stackName)
	}

	found := output.Stacks[0]

	stack := Stack{
		Name:        aws.ToString(found.StackName),
		Status:      string(found.StackStatus),
		LastUpdated: aws.ToTime(found.CreationTime),
		Outputs:     map[string]string{},
	}

	if found.LastUpdatedTime != nil {
		stack.LastUpdated = *found.LastUpdatedTime
	}

	for _, o := range found.Outputs {
		stack.Outputs[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}

	return stack, nil
}

// Get returns the outputs of stackName keyed by logical output id.
func (s Service) Get(ctx context.Context, stackName string) (map[string]string, error) {
	stack, err := s.Describe(ctx, stackName)
	if err != nil {
		return nil, err
	}
	return stack.Outputs, nil
}

func (s Service) Value(ctx context.Context, stackName, key string) (string, error) {
	outputs, err := s.Get(ctx, stackName)
	if err != nil {
		return "", err
	}

	value, ok := outputs[key]
	if !ok {
		return "", fmt.Errorf("%w: %s on stack %s", ErrOutputNotFound, key, stackName)
	}

	return value, nil
}
