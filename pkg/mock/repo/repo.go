package mocks

import (
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/mpaf/cdk-snippets/internal/gitlib"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog/log"
)

// Asset layout written into every mock repository.
var Layout = map[string]string{
	"assets/container/Dockerfile":       "FROM public.ecr.aws/docker/library/golang:1.22\n",
	"assets/sparkimage/Dockerfile":      "FROM public.ecr.aws/amazoncorretto/amazoncorretto:8\n",
	"assets/bootstrapscript/emr_ssm.sh": "#!/bin/bash\nsudo systemctl start amazon-ssm-agent\n",
	"dist/handler/bootstrap":            "not a real binary\n",
	"README.md":                         "mock\n",
}

// MockRepository initializes a committed git repository under a temporary directory,
// checked out on branchName with an ssh origin pointing at github.com/org/repo.
func MockRepository(orgName, repoName, branchName string) (gitMock gitlib.DotGit, cleanupHook func()) {
	parent, err := os.MkdirTemp("", "snippets-")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create temporary directory")
	}

	root := filepath.Join(parent, repoName)

	for path, content := range Layout {
		full := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(full), os.ModePerm); err != nil {
			log.Fatal().Err(err).Msg("failed to create fixture directory")
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			log.Fatal().Err(err).Msg("failed to write fixture")
		}
	}

	repo, err := git.PlainInit(root, false)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init repository")
	}

	wt, err := repo.Worktree()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open worktree")
	}

	if err := wt.AddGlob("."); err != nil {
		log.Fatal().Err(err).Msg("failed to stage fixtures")
	}

	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "mock", Email: "mock@example.com", When: time.Unix(0, 0)},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to commit fixtures")
	}

	err = wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branchName),
		Create: true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to checkout branch")
	}

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{"git@github.com:" + orgName + "/" + repoName + ".git"},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create origin")
	}

	origin, err := url.Parse("https://github.com/" + orgName + "/" + repoName + ".git")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse origin URL")
	}

	gitMock = gitlib.DotGit{
		Branch: branchName,
		Sha:    hash.String(),
		Root:   root,
		Origin: origin,
		Dirty:  false,
	}

	cleanupHook = func() {
		os.RemoveAll(parent)
	}

	return gitMock, cleanupHook
}
