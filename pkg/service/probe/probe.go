package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxElapsed      = 2 * time.Minute
	DefaultInitialInterval = time.Second
	RequestTimeout         = 10 * time.Second
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Service struct {
	Client          HttpClient
	MaxElapsed      time.Duration
	InitialInterval time.Duration
}

type Result struct {
	Url      string
	Status   int
	Attempts int
	Elapsed  time.Duration
}

func FromClient(client HttpClient) Service {
	return Service{
		Client:          client,
		MaxElapsed:      DefaultMaxElapsed,
		InitialInterval: DefaultInitialInterval,
	}
}

// Get requests url until it answers 2xx or MaxElapsed runs out.
func (s Service) Get(ctx context.Context, url string) (Result, error) {
	result := Result{Url: url}
	start := time.Now()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.InitialInterval
	policy.MaxElapsedTime = s.MaxElapsed

	operation := func() error {
		result.Attempts++

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := s.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		result.Status = resp.StatusCode

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("%s answered %s", url, resp.Status)
		}

		return nil
	}

	notify := func(err error, wait time.Duration) {
		log.Debug().Err(err).Dur("wait", wait).Msg("endpoint not ready")
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify)
	result.Elapsed = time.Since(start)

	if err != nil {
		return result, fmt.Errorf("endpoint %s failed after %d attempts: %w", url, result.Attempts, err)
	}

	return result, nil
}
