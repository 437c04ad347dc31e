package sigv4

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

const ExecuteApi = "execute-api"

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type HttpSigner interface {
	SignHTTP(ctx context.Context, credentials aws.Credentials, r *http.Request, payloadHash string, service string, region string, signingTime time.Time, optFns ...func(*v4.SignerOptions)) error
}

// Client signs every request for execute-api before handing it to Next.
type Client struct {
	Next        HttpClient
	Credentials aws.CredentialsProvider
	Region      string
	Signer      HttpSigner
	now         func() time.Time
}

func FromClients(next HttpClient, credentials aws.CredentialsProvider, region string) Client {
	return Client{
		Next:        next,
		Credentials: credentials,
		Region:      region,
		Signer:      v4.NewSigner(),
		now:         time.Now,
	}
}

func (c Client) Do(request *http.Request) (*http.Response, error) {
	if err := c.SignRequest(request.Context(), request); err != nil {
		return nil, err
	}

	return c.Next.Do(request)
}

func (c Client) SignRequest(ctx context.Context, request *http.Request) (err error) {
	var body []byte

	if request.Body != nil {
		if body, err = io.ReadAll(request.Body); err != nil {
			return
		}
		request.Body = io.NopCloser(bytes.NewReader(body))
	}

	if c.Credentials == nil {
		return fmt.Errorf("no AWS credentials to sign with")
	}

	creds, err := c.Credentials.Retrieve(ctx)
	if err != nil {
		return
	}

	bodyHash := sha256.Sum256(body)
	encodedPayload := hex.EncodeToString(bodyHash[:])

	now := time.Now
	if c.now != nil {
		now = c.now
	}

	return c.Signer.SignHTTP(
		ctx,
		creds,
		request,
		encodedPayload,
		ExecuteApi,
		c.Region,
		now(),
	)
}
