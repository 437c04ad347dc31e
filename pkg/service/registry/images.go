package registry

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
)

type Image struct {
	Digest   string
	Tags     []string
	PushedAt time.Time
	Size     int64
}

// List returns every image in repository, most recently pushed first.
func (s Service) List(ctx context.Context, registryId, repository string) ([]Image, error) {
	var images []Image

	paginator := ecr.NewDescribeImagesPaginator(s.Client.Ecr, &ecr.DescribeImagesInput{
		RegistryId:     aws.String(registryId),
		RepositoryName: aws.String(repository),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		for _, detail := range page.ImageDetails {
			images = append(images, Image{
				Digest:   aws.ToString(detail.ImageDigest),
				Tags:     detail.ImageTags,
				PushedAt: aws.ToTime(detail.ImagePushedAt),
				Size:     aws.ToInt64(detail.ImageSizeInBytes),
			})
		}
	}

	sort.SliceStable(images, func(i, j int) bool {
		return images[i].PushedAt.After(images[j].PushedAt)
	})

	return images, nil
}
