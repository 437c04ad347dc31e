package config

import (
	"github.com/mpaf/cdk-snippets/internal/umwelt"
	"github.com/mpaf/cdk-snippets/internal/util"
)

func FromHere(here umwelt.Here) (c Config) {
	c.Caller.Arn = here.Caller.Arn

	c.Account.Id = here.Caller.Account
	c.Account.Region = here.Caller.Region

	c.Registry.Id = here.Registry.Id
	c.Registry.Region = here.Registry.Region
	c.Registry.Url = RegistryUrl(c.Registry.Id, c.Registry.Region)

	if here.Git.Origin != nil {
		c.Git.Origin = here.Git.Origin.String()
	}
	c.Git.Branch = here.Git.Branch
	c.Git.Sha = here.Git.Sha
	c.Git.Root = here.Git.Root
	c.Git.Dirty = here.Git.Dirty

	c.Vpc.Id = here.Vpc.Id
	c.Vpc.SubnetIds = here.Vpc.SubnetIds

	c.Assets = Assets(here.Assets)

	c.Version = util.Coalesce(util.ShortSha(c.Git.Sha), "dev")

	c.Pipeline = DefaultPipeline(c)

	return
}
