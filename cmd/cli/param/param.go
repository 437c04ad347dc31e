package param

type GlobalOpts struct {
	Offline   bool   `arg:"--offline,env:SNIPPETS_OFFLINE" help:"resolve the environment from variables only, without calling AWS"`
	Config    string `arg:"-c,--config,env:SNIPPETS_CONFIG" default:"snippets.yaml" help:"pipeline file, defaults apply when it does not exist"`
	Account   string `arg:"--account" help:"default account, exported as CDK_DEFAULT_ACCOUNT"`
	Region    string `arg:"--region" help:"default region, exported as CDK_DEFAULT_REGION"`
	EcrId     string `arg:"--ecr-id" help:"registry id, exported as AWS_ECR_REGISTRY_ID"`
	EcrRegion string `arg:"--ecr-region" help:"registry region, exported as AWS_ECR_REGION"`
	SubnetIds string `arg:"--subnet-ids" help:"comma separated subnets, exported as AWS_SUBNET_IDS"`
	VpcId     string `arg:"--vpc-id" help:"vpc to discover private subnets in, exported as AWS_VPC_ID"`
}

type Synth struct {
	App string `arg:"-a,--app,env:SNIPPETS_APP" default:"lambda-pipeline" help:"app to synthesize, see apps"`
	Out string `arg:"-o,--out" help:"cloud assembly directory, the cdk toolkit picks one when blank"`
}

type Apps struct{}

type Config struct{}

type Outputs struct {
	Stack string `arg:"positional,required" help:"deployed stack name, e.g. Prod-LambdaApp"`
}

type Validate struct {
	Stack  string `arg:"-s,--stack" help:"deployed stack holding the endpoint output"`
	Output string `arg:"-k,--output" default:"Url" help:"output key holding the endpoint"`
	Url    string `arg:"-u,--url,env:ENDPOINT_URL" help:"probe this url instead of reading a stack output"`
	Signed bool   `arg:"--signed" help:"sign requests with SigV4 for IAM authorized endpoints"`
}

type Serve struct {
	Port int `arg:"-p,--port,env:PORT" default:"80" help:"port the container app listens on"`
}

type Local struct {
	Port int `arg:"-p,--port" default:"8080" help:"host port mapped onto the container app"`
}

type Login struct{}

type Images struct {
	Tag string `arg:"-t,--tag" help:"inspect a single asset image instead of listing"`
}
