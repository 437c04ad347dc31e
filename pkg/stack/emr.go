package stack

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecrassets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsemr"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3assets"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

const (
	ClusterName         = "MiguelEMRCluster"
	DefaultReleaseLabel = "emr-6.4.0"
)

type EmrDockerProps struct {
	awscdk.StackProps
	// SparkDir is the build context of the executor image.
	SparkDir string
	// BootstrapScript is uploaded and run on every node.
	BootstrapScript string
	// SubnetId skips the default VPC lookup when set.
	SubnetId     string
	ReleaseLabel string
}

// EmrDocker is a spark cluster whose executors run inside a docker image.
type EmrDocker struct {
	awscdk.Stack
	Image     awsecrassets.DockerImageAsset
	Bootstrap awss3assets.Asset
	Cluster   awsemr.CfnCluster
}

func NewEmrDocker(scope constructs.Construct, id string, props *EmrDockerProps) (*EmrDocker, error) {
	if props == nil {
		props = &EmrDockerProps{}
	}

	stack := awscdk.NewStack(scope, &id, &props.StackProps)

	ec2Role := awsiam.NewRole(stack, jsii.String("EMREC2Role"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("ec2.amazonaws.com"), nil),
		ManagedPolicies: &[]awsiam.IManagedPolicy{
			awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String("service-role/AmazonElasticMapReduceforEC2Role")),
			awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String("AmazonSSMManagedInstanceCore")),
		},
	})

	serviceRole := awsiam.NewRole(stack, jsii.String("EMRRole"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("elasticmapreduce.amazonaws.com"), nil),
		ManagedPolicies: &[]awsiam.IManagedPolicy{
			awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String("service-role/AmazonElasticMapReduceRole")),
		},
	})

	profile := awsiam.NewCfnInstanceProfile(stack, jsii.String("EMRInstanceProfile"), &awsiam.CfnInstanceProfileProps{
		Roles: &[]*string{ec2Role.RoleName()},
	})

	subnetId := props.SubnetId
	if subnetId == "" {
		vpc := awsec2.Vpc_FromLookup(stack, jsii.String("ExistingVPC"), &awsec2.VpcLookupOptions{
			IsDefault: jsii.Bool(true),
		})

		subnet, err := vpcSubnet(vpc)
		if err != nil {
			return nil, err
		}
		subnetId = *subnet
	}

	image := awsecrassets.NewDockerImageAsset(stack, jsii.String("SparkDockerImage"), &awsecrassets.DockerImageAssetProps{
		Directory: jsii.String(props.SparkDir),
	})

	script := awss3assets.NewAsset(stack, jsii.String("EMRBootstrapScript"), &awss3assets.AssetProps{
		Path: jsii.String(props.BootstrapScript),
	})

	release := DefaultReleaseLabel
	if props.ReleaseLabel != "" {
		release = props.ReleaseLabel
	}

	registries := fmt.Sprintf("local,centos,%s", *image.Repository().RepositoryUri())

	cluster := awsemr.NewCfnCluster(stack, jsii.String(ClusterName), &awsemr.CfnClusterProps{
		Name:         jsii.String(ClusterName),
		ReleaseLabel: jsii.String(release),
		JobFlowRole:  profile.Ref(),
		ServiceRole:  serviceRole.RoleArn(),
		Instances: &awsemr.CfnCluster_JobFlowInstancesConfigProperty{
			Ec2SubnetId: jsii.String(subnetId),
			MasterInstanceGroup: &awsemr.CfnCluster_InstanceGroupConfigProperty{
				InstanceCount: jsii.Number(1),
				InstanceType:  jsii.String("m5a.xlarge"),
				Market:        jsii.String("ON_DEMAND"),
				Name:          jsii.String("master"),
			},
			CoreInstanceGroup: &awsemr.CfnCluster_InstanceGroupConfigProperty{
				InstanceCount: jsii.Number(1),
				InstanceType:  jsii.String("c5a.xlarge"),
				Market:        jsii.String("ON_DEMAND"),
				Name:          jsii.String("core"),
			},
		},
		BootstrapActions: &[]interface{}{
			&awsemr.CfnCluster_BootstrapActionConfigProperty{
				Name: jsii.String("installSSMAgent"),
				ScriptBootstrapAction: &awsemr.CfnCluster_ScriptBootstrapActionConfigProperty{
					Path: script.S3ObjectUrl(),
				},
			},
		},
		Configurations: clusterConfigurations(registries, *image.ImageUri()),
		Applications: &[]interface{}{
			&awsemr.CfnCluster_ApplicationProperty{Name: jsii.String("spark")},
			&awsemr.CfnCluster_ApplicationProperty{Name: jsii.String("livy")},
		},
	})

	return &EmrDocker{
		Stack:     stack,
		Image:     image,
		Bootstrap: script,
		Cluster:   cluster,
	}, nil
}

// vpcSubnet picks the first private subnet of vpc, then the first public one, then the first
// isolated one.
func vpcSubnet(vpc awsec2.IVpc) (*string, error) {
	for _, subnets := range []*[]awsec2.ISubnet{vpc.PrivateSubnets(), vpc.PublicSubnets(), vpc.IsolatedSubnets()} {
		if subnets != nil && len(*subnets) > 0 {
			return (*subnets)[0].SubnetId(), nil
		}
	}

	return nil, fmt.Errorf("vpc %s has no subnets to place the cluster in", *vpc.VpcId())
}

func clusterConfigurations(registries, imageUri string) *[]interface{} {
	return &[]interface{}{
		&awsemr.CfnCluster_ConfigurationProperty{
			Classification:          jsii.String("container-executor"),
			ConfigurationProperties: &map[string]*string{},
			Configurations: &[]interface{}{
				&awsemr.CfnCluster_ConfigurationProperty{
					Classification: jsii.String("docker"),
					ConfigurationProperties: &map[string]*string{
						"docker.privileged-containers.registries": jsii.String(registries),
						"docker.trusted.registries":               jsii.String(registries),
					},
				},
			},
		},
		&awsemr.CfnCluster_ConfigurationProperty{
			Classification: jsii.String("livy-conf"),
			ConfigurationProperties: &map[string]*string{
				"livy.spark.master":           jsii.String("yarn"),
				"livy.spark.deploy-mode":      jsii.String("cluster"),
				"livy.server.session.timeout": jsii.String("16h"),
			},
		},
		&awsemr.CfnCluster_ConfigurationProperty{
			Classification: jsii.String("hive-site"),
			ConfigurationProperties: &map[string]*string{
				"hive.execution.mode": jsii.String("container"),
			},
		},
		&awsemr.CfnCluster_ConfigurationProperty{
			Classification: jsii.String("spark-defaults"),
			ConfigurationProperties: &map[string]*string{
				"spark.executorEnv.YARN_CONTAINER_RUNTIME_TYPE":               jsii.String("docker"),
				"spark.yarn.am.waitTime":                                      jsii.String("300s"),
				"spark.yarn.appMasterEnv.YARN_CONTAINER_RUNTIME_TYPE":         jsii.String("docker"),
				"spark.executorEnv.YARN_CONTAINER_RUNTIME_DOCKER_IMAGE":       jsii.String(imageUri),
				"spark.executor.instances":                                    jsii.String("2"),
				"spark.yarn.appMasterEnv.YARN_CONTAINER_RUNTIME_DOCKER_IMAGE": jsii.String(imageUri),
			},
		},
	}
}
