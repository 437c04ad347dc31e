package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/mpaf/cdk-snippets/internal/gitlib"
	"github.com/mpaf/cdk-snippets/internal/util"

	"gopkg.in/yaml.v3"
)

const (
	EnvProdAccount  = "PROD_ACCOUNT"
	EnvProdRegion   = "PROD_REGION"
	EnvApp          = "SNIPPETS_APP"
	EnvSourceRepo   = "SNIPPETS_SOURCE_REPO"
	EnvSourceBranch = "SNIPPETS_SOURCE_BRANCH"

	DefaultRepo           = "mpaf/cdk-snippets"
	DefaultBranch         = "main"
	DefaultOutputDir      = "cdk.out"
	DefaultApproval       = "ChangeSet Approval"
	DefaultValidation     = "curl -Ssf $ENDPOINT_URL"
	DefaultPipelineConfig = "snippets.yaml"
)

type Source struct {
	Repo   string `yaml:"repo" json:"repo"`
	Branch string `yaml:"branch" json:"branch"`
}

type Synth struct {
	Commands               []string `yaml:"commands" json:"commands"`
	PrimaryOutputDirectory string   `yaml:"primaryOutputDirectory" json:"primaryOutputDirectory"`
}

// Stage is one environment the pipeline promotes to, in declaration order.
type Stage struct {
	Name              string   `yaml:"name" json:"name"`
	Account           string   `yaml:"account,omitempty" json:"account,omitempty"`
	Region            string   `yaml:"region,omitempty" json:"region,omitempty"`
	ConfirmBroadening bool     `yaml:"confirmBroadening,omitempty" json:"confirmBroadening,omitempty"`
	Approval          string   `yaml:"approval,omitempty" json:"approval,omitempty"`
	Validate          []string `yaml:"validate,omitempty" json:"validate,omitempty"`
	Image             string   `yaml:"image,omitempty" json:"image,omitempty"`
}

type Pipeline struct {
	Source           Source  `yaml:"source" json:"source"`
	Synth            Synth   `yaml:"synth" json:"synth"`
	CrossAccountKeys bool    `yaml:"crossAccountKeys" json:"crossAccountKeys"`
	Stages           []Stage `yaml:"stages" json:"stages"`
}

func DefaultSynthCommands() []string {
	return []string{
		"npm install -g aws-cdk",
		"test -f go.sum || go mod tidy",
		"GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o dist/handler/bootstrap ./cmd/snippets",
		"cdk synth",
	}
}

func DefaultStages() []Stage {
	return []Stage{
		{
			Name: "Dev",
		},
		{
			Name:              "Prod",
			Account:           os.Getenv(EnvProdAccount),
			Region:            os.Getenv(EnvProdRegion),
			ConfirmBroadening: true,
			Approval:          DefaultApproval,
			Validate:          []string{DefaultValidation},
		},
	}
}

func DefaultPipeline(c Config) Pipeline {
	return Pipeline{
		Source:           DefaultSource(c.Git),
		Synth:            Synth{Commands: DefaultSynthCommands(), PrimaryOutputDirectory: DefaultOutputDir},
		CrossAccountKeys: true,
		Stages:           DefaultStages(),
	}
}

// DefaultSource points the pipeline at the checked out repository and branch when they look like GitHub.
// SNIPPETS_SOURCE_REPO and SNIPPETS_SOURCE_BRANCH take precedence over git metadata.
func DefaultSource(g Git) Source {
	source := gitSource(g)
	source.Repo = util.Coalesce(os.Getenv(EnvSourceRepo), source.Repo)
	source.Branch = util.Coalesce(os.Getenv(EnvSourceBranch), source.Branch)
	return source
}

func gitSource(g Git) Source {
	source := Source{Repo: DefaultRepo, Branch: DefaultBranch}

	if g.Origin == "" {
		return source
	}

	origin, err := url.Parse(g.Origin)
	if err != nil || origin.Host != "github.com" {
		return source
	}

	if repo, err := gitlib.RepoPath(origin); err == nil {
		source.Repo = repo
		source.Branch = util.Coalesce(g.Branch, DefaultBranch)
	}

	return source
}

// LoadPipeline overlays the pipeline file at path onto the defaults. A missing file keeps the defaults.
func (c Config) LoadPipeline(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, c.Pipeline.Validate()
	}

	if err != nil {
		return c, fmt.Errorf("failed to read pipeline file %s: %w", path, err)
	}

	return c.ParsePipeline(content)
}

func (c Config) ParsePipeline(content []byte) (Config, error) {
	var file Pipeline
	if err := yaml.Unmarshal(content, &file); err != nil {
		return c, fmt.Errorf("failed to parse pipeline file: %w", err)
	}

	defaults := DefaultPipeline(c)

	file.Source.Repo = util.Coalesce(file.Source.Repo, defaults.Source.Repo)
	file.Source.Branch = util.Coalesce(file.Source.Branch, defaults.Source.Branch)
	file.Synth.PrimaryOutputDirectory = util.Coalesce(file.Synth.PrimaryOutputDirectory, defaults.Synth.PrimaryOutputDirectory)

	if len(file.Synth.Commands) == 0 {
		file.Synth.Commands = defaults.Synth.Commands
	}

	if len(file.Stages) == 0 {
		file.Stages = defaults.Stages
	}

	// crossAccountKeys only turns off when the file says so.
	var raw struct {
		CrossAccountKeys *bool `yaml:"crossAccountKeys"`
	}
	if err := yaml.Unmarshal(content, &raw); err == nil && raw.CrossAccountKeys == nil {
		file.CrossAccountKeys = defaults.CrossAccountKeys
	}

	c.Pipeline = file
	return c, c.Pipeline.Validate()
}

// SynthEnv lists the variables the synth step needs to rebuild app with this pipeline's source
// and stage environments.
func (c Config) SynthEnv(app string) map[string]string {
	env := map[string]string{
		EnvSourceRepo:   c.Pipeline.Source.Repo,
		EnvSourceBranch: c.Pipeline.Source.Branch,
	}

	if app != "" {
		env[EnvApp] = app
	}

	if prod, ok := c.Pipeline.Stage("Prod"); ok {
		if prod.Account != "" {
			env[EnvProdAccount] = prod.Account
		}
		if prod.Region != "" {
			env[EnvProdRegion] = prod.Region
		}
	}

	return env
}

func (p Pipeline) Validate() error {
	if p.Source.Repo == "" {
		return fmt.Errorf("pipeline source repository is required")
	}

	if len(p.Synth.Commands) == 0 {
		return fmt.Errorf("pipeline synth requires at least one command")
	}

	if len(p.Stages) == 0 {
		return fmt.Errorf("pipeline requires at least one stage")
	}

	seen := map[string]bool{}
	for i, stage := range p.Stages {
		if stage.Name == "" {
			return fmt.Errorf("stage %d has no name", i)
		}

		if seen[stage.Name] {
			return fmt.Errorf("stage %s is declared more than once", stage.Name)
		}
		seen[stage.Name] = true
	}

	return nil
}

func (p Pipeline) Stage(name string) (Stage, bool) {
	for _, stage := range p.Stages {
		if stage.Name == name {
			return stage, true
		}
	}
	return Stage{}, false
}
