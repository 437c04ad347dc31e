package umwelt

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	clientmock "github.com/mpaf/cdk-snippets/pkg/mock/client"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetRegistryId(t *testing.T) {
	ctx := context.Background()

	t.Run("from env", func(t *testing.T) {
		t.Setenv("TEST_ECR_ID", "111111111111")
		mecr := &clientmock.MockECRClient{}

		id, err := GetRegistryId(ctx, "TEST_ECR_ID", mecr)
		assert.NoError(t, err)
		assert.Equal(t, "111111111111", id)
		mecr.AssertNotCalled(t, "DescribeRegistry", mock.Anything, mock.Anything)
	})

	t.Run("from ecr", func(t *testing.T) {
		mecr := &clientmock.MockECRClient{}
		mecr.On("DescribeRegistry", ctx, mock.Anything).Return(&ecr.DescribeRegistryOutput{
			RegistryId: aws.String("222222222222"),
		}, nil)

		id, err := GetRegistryId(ctx, "TEST_ECR_ID_UNSET", mecr)
		assert.NoError(t, err)
		assert.Equal(t, "222222222222", id)
	})

	t.Run("ecr error", func(t *testing.T) {
		mecr := &clientmock.MockECRClient{}
		mecr.On("DescribeRegistry", ctx, mock.Anything).Return((*ecr.DescribeRegistryOutput)(nil), fmt.Errorf("denied"))

		_, err := GetRegistryId(ctx, "TEST_ECR_ID_UNSET", mecr)
		assert.Error(t, err)
	})
}

func TestGetAccountAndRegion(t *testing.T) {
	t.Setenv("TEST_ACCOUNT", "")
	assert.Equal(t, "fallback", GetAccount("TEST_ACCOUNT", "fallback"))

	t.Setenv("TEST_ACCOUNT", "123")
	assert.Equal(t, "123", GetAccount("TEST_ACCOUNT", "fallback"))

	t.Setenv("TEST_REGION", "")
	assert.Equal(t, "us-east-1", GetRegion("TEST_REGION", aws.Config{Region: "us-east-1"}))

	t.Setenv("TEST_REGION", "eu-west-1")
	assert.Equal(t, "eu-west-1", GetRegion("TEST_REGION", aws.Config{Region: "us-east-1"}))
}

func TestGetSubnetIdsNoPrivateSubnets(t *testing.T) {
	ctx := context.Background()
	t.Setenv("TEST_VPC", "vpc-empty")

	mec2 := &clientmock.MockEc2Client{}
	mec2.On("DescribeSubnets", ctx, mock.Anything).Return(&ec2.DescribeSubnetsOutput{}, nil)

	_, _, err := GetSubnetIds(ctx, "TEST_SUBNETS_UNSET", "TEST_VPC", mec2)
	assert.ErrorContains(t, err, "no private subnets")
}

func TestDiscover(t *testing.T) {
	assets := Discover("/repo")
	assert.Equal(t, ThisAssets{
		Root:      "/repo",
		Handler:   filepath.Join("/repo", "dist", "handler"),
		Container: filepath.Join("/repo", "assets", "container"),
		Spark:     filepath.Join("/repo", "assets", "sparkimage"),
		Bootstrap: filepath.Join("/repo", "assets", "bootstrapscript", "emr_ssm.sh"),
	}, assets)
}
