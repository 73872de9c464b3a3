/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package devrev is a thin HTTP adapter over the platform endpoints the bulk
// delete flow consumes. Every call is a JSON POST to <endpoint>/<resource>.<verb>.
package devrev

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/blnkfinance/bulkdelete/internal/request"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	limiter    ratelimit.Limiter
}

type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRateLimit paces outgoing requests to rps per second. Zero or less disables pacing.
func WithRateLimit(rps int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = ratelimit.New(rps)
		}
	}
}

// WithHTTPClient replaces the underlying http client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a client for the given API base and service account token.
func New(endpoint, token string, opts ...Option) *Client {
	c := &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    ratelimit.NewUnlimited(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) post(ctx context.Context, path string, payload, response interface{}) error {
	c.limiter.Take()

	req, err := request.NewJSONRequest(ctx, c.endpoint+"/"+path, c.token, payload)
	if err != nil {
		return errors.Wrapf(err, "%s: build request", path)
	}

	resp, err := request.Call(c.httpClient, req, response)
	if err != nil {
		fields := logrus.Fields{"path": path}
		if resp != nil {
			fields["status"] = resp.StatusCode
		}
		logrus.WithFields(fields).WithError(err).Debug("platform call failed")
		return errors.Wrap(err, path)
	}
	return nil
}

type idRequest struct {
	ID string `json:"id"`
}
