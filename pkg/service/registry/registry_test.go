package registry

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	clientmock "github.com/mpaf/cdk-snippets/pkg/mock/client"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrTypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, "111111111111.dkr.ecr.eu-west-1.amazonaws.com", Url("111111111111", "eu-west-1"))
	assert.Equal(t, "cdk-hnb659fds-container-assets-111111111111-eu-west-1", AssetRepository("111111111111", "eu-west-1"))
}

func TestToken(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		output *ecr.GetAuthorizationTokenOutput
		err    error
		test   func(*testing.T, string, error)
	}{
		{
			name: "Decodes password",
			output: &ecr.GetAuthorizationTokenOutput{
				AuthorizationData: []ecrTypes.AuthorizationData{
					{AuthorizationToken: aws.String(base64.StdEncoding.EncodeToString([]byte("AWS:s3cr3t:with:colons")))},
				},
			},
			test: func(t *testing.T, token string, err error) {
				require.NoError(t, err)
				assert.Equal(t, "s3cr3t:with:colons", token)
			},
		},
		{
			name:   "No authorization data",
			output: &ecr.GetAuthorizationTokenOutput{},
			test: func(t *testing.T, token string, err error) {
				assert.ErrorContains(t, err, "no authorization data")
			},
		},
		{
			name: "Malformed token",
			output: &ecr.GetAuthorizationTokenOutput{
				AuthorizationData: []ecrTypes.AuthorizationData{
					{AuthorizationToken: aws.String(base64.StdEncoding.EncodeToString([]byte("nocolon")))},
				},
			},
			test: func(t *testing.T, token string, err error) {
				assert.ErrorContains(t, err, "malformed")
			},
		},
		{
			name:   "Api error",
			output: (*ecr.GetAuthorizationTokenOutput)(nil),
			err:    fmt.Errorf("denied"),
			test: func(t *testing.T, token string, err error) {
				assert.EqualError(t, err, "denied")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mecr := &clientmock.MockECRClient{}
			mecr.On("GetAuthorizationToken", ctx, &ecr.GetAuthorizationTokenInput{RegistryIds: []string{"111111111111"}}).Return(tc.output, tc.err)

			token, err := FromClients(mecr, nil).Token(ctx, "111111111111")
			tc.test(t, token, err)
			mecr.AssertExpectations(t)
		})
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	mecr := &clientmock.MockECRClient{}
	mecr.On("DescribeImages", ctx, mock.Anything).Return(&ecr.DescribeImagesOutput{
		ImageDetails: []ecrTypes.ImageDetail{
			{ImageDigest: aws.String("sha256:old"), ImagePushedAt: aws.Time(older), ImageSizeInBytes: aws.Int64(10)},
			{ImageDigest: aws.String("sha256:new"), ImagePushedAt: aws.Time(newer), ImageTags: []string{"abc"}},
		},
	}, nil)

	images, err := FromClients(mecr, nil).List(ctx, "111111111111", "repo")
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, Image{Digest: "sha256:new", Tags: []string{"abc"}, PushedAt: newer}, images[0])
	assert.Equal(t, int64(10), images[1].Size)
}

func TestInspectByTag(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/config" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"architecture":"amd64","os":"linux","config":{"ExposedPorts":{"80/tcp":{}}}}`)
	}))
	defer server.Close()

	manifest := aws.String(`{"mediaType":"application/vnd.docker.distribution.manifest.v2+json","config":{"digest":"sha256:cfg"}}`)
	index := aws.String(`{"schemaVersion":2,"mediaType":"application/vnd.oci.image.index.v1+json","manifests":[{"digest":"sha256:amd64"}]}`)
	bare := aws.String(`{"schemaVersion":2,"manifests":[{"digest":"sha256:amd64"}]}`)

	tests := []struct {
		name  string
		setup func(*clientmock.MockECRClient)
		test  func(*testing.T, error, string)
	}{
		{
			name: "Reads config blob",
			setup: func(m *clientmock.MockECRClient) {
				m.On("BatchGetImage", ctx, mock.Anything).Return(&ecr.BatchGetImageOutput{
					Images: []ecrTypes.Image{{ImageManifest: manifest}},
				}, nil)
				m.On("GetDownloadUrlForLayer", ctx, mock.MatchedBy(func(in *ecr.GetDownloadUrlForLayerInput) bool {
					return aws.ToString(in.LayerDigest) == "sha256:cfg"
				})).Return(&ecr.GetDownloadUrlForLayerOutput{DownloadUrl: aws.String(server.URL + "/config")}, nil)
			},
			test: func(t *testing.T, err error, arch string) {
				require.NoError(t, err)
				assert.Equal(t, "amd64", arch)
			},
		},
		{
			name: "Tag not found",
			setup: func(m *clientmock.MockECRClient) {
				m.On("BatchGetImage", ctx, mock.Anything).Return(&ecr.BatchGetImageOutput{}, nil)
			},
			test: func(t *testing.T, err error, arch string) {
				assert.EqualError(t, err, "no image found for tag latest")
			},
		},
		{
			name: "Blob download fails",
			setup: func(m *clientmock.MockECRClient) {
				m.On("BatchGetImage", ctx, mock.Anything).Return(&ecr.BatchGetImageOutput{
					Images: []ecrTypes.Image{{ImageManifest: manifest}},
				}, nil)
				m.On("GetDownloadUrlForLayer", ctx, mock.Anything).Return(&ecr.GetDownloadUrlForLayerOutput{DownloadUrl: aws.String(server.URL + "/missing")}, nil)
			},
			test: func(t *testing.T, err error, arch string) {
				assert.ErrorContains(t, err, "404")
			},
		},
		{
			name: "Image index is rejected",
			setup: func(m *clientmock.MockECRClient) {
				m.On("BatchGetImage", ctx, mock.Anything).Return(&ecr.BatchGetImageOutput{
					Images: []ecrTypes.Image{{ImageManifest: index}},
				}, nil)
			},
			test: func(t *testing.T, err error, arch string) {
				assert.EqualError(t, err, "repo:latest is a multi-platform image (application/vnd.oci.image.index.v1+json), inspect a platform specific tag")
			},
		},
		{
			name: "Manifest list media type from the registry",
			setup: func(m *clientmock.MockECRClient) {
				m.On("BatchGetImage", ctx, mock.Anything).Return(&ecr.BatchGetImageOutput{
					Images: []ecrTypes.Image{{ImageManifest: bare, ImageManifestMediaType: aws.String(MediaTypeManifestList)}},
				}, nil)
			},
			test: func(t *testing.T, err error, arch string) {
				assert.ErrorContains(t, err, "multi-platform image")
			},
		},
		{
			name: "Manifest without config",
			setup: func(m *clientmock.MockECRClient) {
				m.On("BatchGetImage", ctx, mock.Anything).Return(&ecr.BatchGetImageOutput{
					Images: []ecrTypes.Image{{ImageManifest: bare}},
				}, nil)
			},
			test: func(t *testing.T, err error, arch string) {
				assert.EqualError(t, err, "image manifest of repo:latest has no config digest")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mecr := &clientmock.MockECRClient{}
			tc.setup(mecr)

			inspect, err := FromClients(mecr, server.Client()).InspectByTag(ctx, "111111111111", "repo", "latest")
			tc.test(t, err, inspect.Architecture)

			mecr.AssertNotCalled(t, "GetDownloadUrlForLayer", ctx, mock.MatchedBy(func(in *ecr.GetDownloadUrlForLayerInput) bool {
				return aws.ToString(in.LayerDigest) == ""
			}))
		})
	}
}

type countingTransport struct {
	calls int
	next  http.RoundTripper
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.calls++
	return c.next.RoundTrip(req)
}

func TestInspectUsesInjectedClient(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"architecture":"arm64","os":"linux"}`)
	}))
	defer server.Close()

	mecr := &clientmock.MockECRClient{}
	mecr.On("BatchGetImage", ctx, mock.Anything).Return(&ecr.BatchGetImageOutput{
		Images: []ecrTypes.Image{{ImageManifest: aws.String(`{"config":{"digest":"sha256:cfg"}}`)}},
	}, nil)
	mecr.On("GetDownloadUrlForLayer", ctx, mock.Anything).Return(&ecr.GetDownloadUrlForLayerOutput{DownloadUrl: aws.String(server.URL)}, nil)

	transport := &countingTransport{next: http.DefaultTransport}
	client := &http.Client{Transport: transport, Timeout: time.Second}

	inspect, err := FromClients(mecr, client).InspectByTag(ctx, "111111111111", "repo", "v1")
	require.NoError(t, err)
	assert.Equal(t, "arm64", inspect.Architecture)
	assert.Equal(t, 1, transport.calls)
}
