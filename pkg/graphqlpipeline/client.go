package graphqlpipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/config"
)

const userAgent = "ask-atlas/1.0"

// GraphQLError is one entry of a GraphQL-level errors array.
type GraphQLError struct {
	Message string `json:"message"`
}

// graphqlResponse is the standard response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Client posts queries to the Atlas GraphQL endpoint. Requests pass
// through a weighted semaphore so at most MaxConcurrency are in flight,
// and each release is delayed so bursts spread out.
type Client struct {
	endpoint     string
	http         *http.Client
	sem          *semaphore.Weighted
	releaseDelay time.Duration
}

// NewClient creates an API client from configuration.
func NewClient(cfg config.GraphQLConfig) *Client {
	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:     cfg.Endpoint,
		http:         &http.Client{Timeout: timeout},
		sem:          semaphore.NewWeighted(concurrency),
		releaseDelay: cfg.ReleaseDelay,
	}
}

// Execute posts one query with variables and returns the data payload.
// GraphQL-level errors are returned as an error without retry.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer func() {
		if c.releaseDelay > 0 {
			time.AfterFunc(c.releaseDelay, func() { c.sem.Release(1) })
		} else {
			c.sem.Release(1)
		}
	}()

	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphql request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graphql endpoint returned status %d", resp.StatusCode)
	}

	var envelope graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode graphql response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", envelope.Errors[0].Message)
	}
	return envelope.Data, nil
}
