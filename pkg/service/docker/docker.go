package docker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docker/docker/api/types"
)

var ErrNoDocker = errors.New("docker is not installed")

type Service struct {
	Binary string
}

type BuildInput struct {
	// Context is the build context. Dockerfile is relative to it, "Dockerfile" when blank.
	Context    string
	Dockerfile string
	Platform   string
	Tags       []string
	Labels     map[string]string
}

type RunInput struct {
	Image         string
	HostPort      int
	ContainerPort int
	Env           map[string]string
	Command       []string
}

func FromPath(ctx context.Context) (Service, error) {
	binary, err := exec.LookPath("docker")
	if err != nil {
		return Service{}, fmt.Errorf("%w: %w", ErrNoDocker, err)
	}

	return Service{Binary: binary}, nil
}

func (s Service) Login(ctx context.Context, registryUrl, username, password string) error {
	if s.Binary == "" {
		return ErrNoDocker
	}

	cmd := exec.CommandContext(ctx, s.Binary, "login", "--username", username, "--password-stdin", registryUrl)
	cmd.Env = os.Environ()
	cmd.Stdin = strings.NewReader(password)
	cmd.Stderr = os.Stderr
	cmd.Stdout = os.Stdout

	return cmd.Run()
}

func (s Service) InspectByTag(ctx context.Context, image string) (types.ImageInspect, error) {
	if s.Binary == "" {
		return types.ImageInspect{}, ErrNoDocker
	}

	cmd := exec.CommandContext(ctx, s.Binary, "image", "inspect", image)
	cmd.Env = os.Environ()
	cmd.Stderr = os.Stderr

	output, err := cmd.Output()
	if err != nil {
		return types.ImageInspect{}, err
	}

	var inspectData []types.ImageInspect
	if err := json.Unmarshal(output, &inspectData); err != nil {
		return types.ImageInspect{}, err
	}

	if len(inspectData) == 0 {
		return types.ImageInspect{}, fmt.Errorf("no image found for %s", image)
	}

	if len(inspectData) > 1 {
		return types.ImageInspect{}, fmt.Errorf("multiple images found for %s", image)
	}

	return inspectData[0], nil
}

func (s Service) Build(ctx context.Context, i BuildInput) error {
	if s.Binary == "" {
		return ErrNoDocker
	}

	cmd := exec.CommandContext(ctx, s.Binary, BuildArgs(i)...)
	cmd.Env = append(os.Environ(), "DOCKER_BUILDKIT=1")
	cmd.Stderr = os.Stderr

	if _, err := cmd.Output(); err != nil {
		return fmt.Errorf("failed to build %s: %w", i.Context, err)
	}

	return nil
}

// Run starts the container in the foreground and removes it on exit.
func (s Service) Run(ctx context.Context, i RunInput) error {
	if s.Binary == "" {
		return ErrNoDocker
	}

	cmd := exec.CommandContext(ctx, s.Binary, RunArgs(i)...)
	cmd.Env = os.Environ()
	cmd.Stderr = os.Stderr
	cmd.Stdout = os.Stdout

	return cmd.Run()
}

func BuildArgs(i BuildInput) []string {
	dockerfile := i.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}

	args := []string{
		"build",
		"-f", filepath.Join(i.Context, dockerfile),
	}

	if i.Platform != "" {
		args = append(args, "--platform", i.Platform)
	}

	for _, tag := range i.Tags {
		args = append(args, "-t", tag)
	}

	for _, key := range sortedKeys(i.Labels) {
		args = append(args, "--label", fmt.Sprintf("%s=%s", key, i.Labels[key]))
	}

	return append(args, i.Context)
}

func RunArgs(i RunInput) []string {
	args := []string{
		"run",
		"--rm",
		"-p", fmt.Sprintf("%d:%d", i.HostPort, i.ContainerPort),
	}

	for _, key := range sortedKeys(i.Env) {
		args = append(args, "--env", key+"="+i.Env[key])
	}

	args = append(args, i.Image)

	return append(args, i.Command...)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
