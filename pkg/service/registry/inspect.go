package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrTypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	dockerTypes "github.com/docker/docker/api/types"
)

// Media types of multi-platform images, which point at manifests rather than a config blob.
const (
	MediaTypeManifestList = "application/vnd.docker.distribution.manifest.list.v2+json"
	MediaTypeImageIndex   = "application/vnd.oci.image.index.v1+json"
)

// manifest is the subset of a distribution manifest needed to find the image config blob.
type manifest struct {
	MediaType string `json:"mediaType"`
	Config    struct {
		MediaType string `json:"mediaType"`
		Digest    string `json:"digest"`
	} `json:"config"`
}

// InspectByTag reads the image config of repository:tag straight from the registry, without pulling.
func (s Service) InspectByTag(ctx context.Context, registryId, repository, tag string) (dockerTypes.ImageInspect, error) {
	batchGetImageInput := &ecr.BatchGetImageInput{
		RegistryId:     aws.String(registryId),
		RepositoryName: aws.String(repository),
		ImageIds: []ecrTypes.ImageIdentifier{
			{
				ImageTag: aws.String(tag),
			},
		},
	}

	batchGetImageOutput, err := s.Client.Ecr.BatchGetImage(ctx, batchGetImageInput)
	if err != nil {
		return dockerTypes.ImageInspect{}, err
	}

	if len(batchGetImageOutput.Images) > 1 {
		return dockerTypes.ImageInspect{}, fmt.Errorf("multiple images found for tag %s", tag)
	}

	if len(batchGetImageOutput.Images) == 0 {
		return dockerTypes.ImageInspect{}, fmt.Errorf("no image found for tag %s", tag)
	}

	return s.inspect(ctx, registryId, repository, tag, batchGetImageOutput)
}

func (s Service) inspect(ctx context.Context, registryId, repository, tag string, output *ecr.BatchGetImageOutput) (dockerTypes.ImageInspect, error) {
	image := output.Images[0]

	var m manifest
	if err := json.Unmarshal([]byte(aws.ToString(image.ImageManifest)), &m); err != nil {
		return dockerTypes.ImageInspect{}, fmt.Errorf("failed to parse image manifest: %w", err)
	}

	mediaType := m.MediaType
	if mediaType == "" {
		mediaType = aws.ToString(image.ImageManifestMediaType)
	}

	switch {
	case mediaType == MediaTypeManifestList, mediaType == MediaTypeImageIndex:
		return dockerTypes.ImageInspect{}, fmt.Errorf("%s:%s is a multi-platform image (%s), inspect a platform specific tag", repository, tag, mediaType)
	case m.Config.Digest == "":
		return dockerTypes.ImageInspect{}, fmt.Errorf("image manifest of %s:%s has no config digest", repository, tag)
	}

	layer, err := s.Client.Ecr.GetDownloadUrlForLayer(ctx, &ecr.GetDownloadUrlForLayerInput{
		RegistryId:     aws.String(registryId),
		RepositoryName: aws.String(repository),
		LayerDigest:    aws.String(m.Config.Digest),
	})
	if err != nil {
		return dockerTypes.ImageInspect{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, aws.ToString(layer.DownloadUrl), nil)
	if err != nil {
		return dockerTypes.ImageInspect{}, err
	}

	resp, err := s.Client.Http.Do(req)
	if err != nil {
		return dockerTypes.ImageInspect{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return dockerTypes.ImageInspect{}, fmt.Errorf("failed to download image config %s: %s", m.Config.Digest, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return dockerTypes.ImageInspect{}, err
	}

	var inspect dockerTypes.ImageInspect
	if err := json.Unmarshal(body, &inspect); err != nil {
		return dockerTypes.ImageInspect{}, fmt.Errorf("failed to parse image config: %w", err)
	}

	return inspect, nil
}
