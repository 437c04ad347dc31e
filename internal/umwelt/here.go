package umwelt

import (
	"context"
	"os"

	"github.com/mpaf/cdk-snippets/internal/gitlib"
	"github.com/mpaf/cdk-snippets/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// https://en.wikipedia.org/wiki/Umwelt
//
// Umwelt (German for "environment" or "surroundings") describes what the synthesizer can see of
// its execution context: who is calling, which account/region is the default target, where the
// registry lives and where the asset sources are on disk.

const (
	EnvDefaultAccount = "CDK_DEFAULT_ACCOUNT"
	EnvDefaultRegion  = "CDK_DEFAULT_REGION"
	EnvEcrId          = "AWS_ECR_REGISTRY_ID"
	EnvEcrRegion      = "AWS_ECR_REGION"
	EnvSnIds          = "AWS_SUBNET_IDS"
	EnvVpcId          = "AWS_VPC_ID"
	EnvAssetRoot      = "SNIPPETS_ASSET_ROOT"
)

type STSClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type ECRClient interface {
	DescribeRegistry(ctx context.Context, params *ecr.DescribeRegistryInput, optFns ...func(*ecr.Options)) (*ecr.DescribeRegistryOutput, error)
}

type Ec2Client interface {
	DescribeSubnets(ctx context.Context, params *ec2.DescribeSubnetsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error)
}

type ThisRegistry struct {
	Id     string
	Region string
}

type ThisVpc struct {
	Id        string
	SubnetIds []string
}

type ThisCaller struct {
	Id      string
	Arn     string
	Account string
	Region  string
}

type ThisAssets struct {
	Root      string
	Handler   string
	Container string
	Spark     string
	Bootstrap string
}

type Here struct {
	Caller   ThisCaller
	Git      gitlib.DotGit
	Registry ThisRegistry
	Vpc      ThisVpc
	Assets   ThisAssets
}

func FromCwd(ctx context.Context, cwd string, git gitlib.DotGit, awsConfig aws.Config, ecrc ECRClient, stsc STSClient, ec2c Ec2Client) (here Here, err error) {
	// Caller
	whoAmI := &sts.GetCallerIdentityInput{}
	caller, err := stsc.GetCallerIdentity(ctx, whoAmI)
	if err != nil {
		return here, err
	}

	here.Caller.Id = aws.ToString(caller.UserId)
	here.Caller.Arn = aws.ToString(caller.Arn)
	here.Caller.Account = GetAccount(EnvDefaultAccount, aws.ToString(caller.Account))
	here.Caller.Region = GetRegion(EnvDefaultRegion, awsConfig)

	// Git
	here.Git = git

	// Assets
	here.Assets = Discover(util.Coalesce(os.Getenv(EnvAssetRoot), git.Root, cwd))

	// Registry
	here.Registry.Region = GetRegistryRegion(EnvEcrRegion, awsConfig)
	if here.Registry.Id, err = GetRegistryId(ctx, EnvEcrId, ecrc); err != nil {
		return here, err
	}

	// Vpc
	if here.Vpc.Id, here.Vpc.SubnetIds, err = GetSubnetIds(ctx, EnvSnIds, EnvVpcId, ec2c); err != nil {
		return here, err
	}

	return here, nil
}

// Offline resolves the environment from variables alone, without calling AWS.
func Offline(cwd string, git gitlib.DotGit, awsConfig aws.Config) (here Here) {
	here.Caller.Account = os.Getenv(EnvDefaultAccount)
	here.Caller.Region = GetRegion(EnvDefaultRegion, awsConfig)

	here.Git = git

	here.Assets = Discover(util.Coalesce(os.Getenv(EnvAssetRoot), git.Root, cwd))

	here.Registry.Region = GetRegistryRegion(EnvEcrRegion, awsConfig)
	here.Registry.Id = util.Coalesce(os.Getenv(EnvEcrId), here.Caller.Account)

	here.Vpc.Id = os.Getenv(EnvVpcId)
	here.Vpc.SubnetIds = util.SplitCsv(os.Getenv(EnvSnIds))

	return here
}
