package view

import (
	"testing"
	"time"

	"github.com/mpaf/cdk-snippets/pkg/catalog"
	"github.com/mpaf/cdk-snippets/pkg/convention/image"
	"github.com/mpaf/cdk-snippets/pkg/service/outputs"
	"github.com/mpaf/cdk-snippets/pkg/service/probe"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
)

func TestApps(t *testing.T) {
	out := Apps(catalog.Entries())
	for _, name := range catalog.Names() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "EmrDockerStack")
}

func TestStack(t *testing.T) {
	out := Stack(outputs.Stack{
		Name:        "Prod-LambdaApp",
		Status:      "UPDATE_COMPLETE",
		LastUpdated: time.Now().Add(-time.Hour),
		Outputs:     map[string]string{"Url": "https://gw.example.com/prod/"},
	})

	assert.Contains(t, out, "Prod-LambdaApp")
	assert.Contains(t, out, "UPDATE_COMPLETE")
	assert.Contains(t, out, "https://gw.example.com/prod/")
}

func TestProbe(t *testing.T) {
	out := Probe(probe.Result{Url: "https://x.example.com", Status: 200, Attempts: 2, Elapsed: 1500 * time.Millisecond})
	assert.Contains(t, out, "https://x.example.com answered 200 after 2 attempt(s) in 1.5s")
}

func TestImages(t *testing.T) {
	out := Images([]image.Summary{
		{Digest: "sha256:fresh", Tags: "abc", Pushed: "2 hours ago"},
		{Digest: "sha256:old", Pushed: "3 months ago", Stale: true},
	})

	assert.Contains(t, out, "sha256:fresh")
	assert.Contains(t, out, "3 months ago")
}

func TestInspect(t *testing.T) {
	out := Inspect("repo", "abc", types.ImageInspect{
		Os:           "linux",
		Architecture: "amd64",
		Config: &container.Config{
			ExposedPorts: nat.PortSet{"80/tcp": struct{}{}},
			Labels:       map[string]string{"org.opencontainers.image.version": "abc1234"},
		},
	})

	assert.Contains(t, out, "repo:abc")
	assert.Contains(t, out, "linux/amd64")
	assert.Contains(t, out, "80/tcp")
	assert.Contains(t, out, "org.opencontainers.image.version=abc1234")
}
