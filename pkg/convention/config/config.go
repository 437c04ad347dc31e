package config

import (
	"context"
	"encoding/json"

	"github.com/mpaf/cdk-snippets/internal/util"
)

type Caller struct {
	Arn string
}

type Account struct {
	Id     string
	Region string
}

type Git struct {
	Origin string
	Branch string
	Sha    string
	Root   string
	Dirty  bool
}

type Registry struct {
	Id     string
	Region string
	Url    string
}

type Vpc struct {
	Id        string
	SubnetIds []string
}

// Assets are the on-disk sources bundled at synthesis time.
type Assets struct {
	Root      string
	Handler   string
	Container string
	Spark     string
	Bootstrap string
}

// Env is an account/region pair a stack or stage is deployed to.
type Env struct {
	Account string
	Region  string
}

type Config struct {
	Caller   Caller
	Account  Account
	Git      Git
	Registry Registry
	Vpc      Vpc
	Assets   Assets
	Pipeline Pipeline
	Version  string
}

// derived information
func (c Config) DefaultEnv() Env {
	return Env{Account: c.Account.Id, Region: c.Account.Region}
}

// Environment fills whatever the stage leaves blank from the default environment.
func (c Config) Environment(stage Stage) Env {
	return Env{
		Account: util.Coalesce(stage.Account, c.Account.Id),
		Region:  util.Coalesce(stage.Region, c.Account.Region),
	}
}

func (c Config) RegistryUrl() string {
	return RegistryUrl(c.Registry.Id, c.Registry.Region)
}

func (c Config) SubnetId() string {
	if len(c.Vpc.SubnetIds) == 0 {
		return ""
	}
	return c.Vpc.SubnetIds[0]
}

func RegistryUrl(id, region string) string {
	return id + ".dkr.ecr." + region + ".amazonaws.com"
}

// helper methods
func (c Config) Json(ctx context.Context) (string, error) {
	cJson, err := json.Marshal(c)
	if err != nil {
		return "", err
	}

	return string(cJson), nil
}
