package umwelt

import (
	"context"
	"fmt"
	"os"

	"github.com/mpaf/cdk-snippets/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ecr"

	"github.com/rs/zerolog/log"
)

func GetAccount(envar string, fallback string) string {
	if account, exists := os.LookupEnv(envar); exists && account != "" {
		return account
	}

	return fallback
}

func GetRegion(envar string, fallback aws.Config) string {
	if region, exists := os.LookupEnv(envar); exists && region != "" {
		return region
	}

	return fallback.Region
}

func GetRegistryId(ctx context.Context, envar string, fallback ECRClient) (string, error) {
	var id string
	var exists bool

	if id, exists = os.LookupEnv(envar); !exists {
		defaultRegistry := &ecr.DescribeRegistryInput{}
		registry, err := fallback.DescribeRegistry(ctx, defaultRegistry)
		if err != nil {
			return "", err
		}
		id = aws.ToString(registry.RegistryId)
	}

	return id, nil
}

func GetRegistryRegion(envar string, fallback aws.Config) string {
	var region string
	var exists bool

	if region, exists = os.LookupEnv(envar); !exists {
		region = fallback.Region
	}

	return region
}

// GetSubnetIds prefers an explicit subnet list. Otherwise, when a VPC id is given, its private
// subnets are discovered. Neither set means the default VPC is looked up at synthesis time.
func GetSubnetIds(ctx context.Context, subnetEnvar, vpcEnvar string, discovery Ec2Client) (string, []string, error) {
	vpcId := os.Getenv(vpcEnvar)

	if subnets, exists := os.LookupEnv(subnetEnvar); exists {
		return vpcId, util.SplitCsv(subnets), nil
	}

	if vpcId == "" {
		return "", nil, nil
	}

	describeSubnetsOutput, err := discovery.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{
		Filters: []types.Filter{
			{
				Name:   aws.String("vpc-id"),
				Values: []string{vpcId},
			},
			{
				Name:   aws.String("map-public-ip-on-launch"),
				Values: []string{"false"},
			},
		},
	})

	if err != nil {
		return "", nil, err
	}

	log.Info().Msgf("discovered %d private subnets in %s", len(describeSubnetsOutput.Subnets), vpcId)

	if len(describeSubnetsOutput.Subnets) == 0 {
		return "", nil, fmt.Errorf("VPC %s contains no private subnets", vpcId)
	}

	var subnetIds []string
	for _, subnet := range describeSubnetsOutput.Subnets {
		subnetIds = append(subnetIds, aws.ToString(subnet.SubnetId))
	}

	return vpcId, subnetIds, nil
}
