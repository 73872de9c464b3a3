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
package middleware

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/blnkfinance/bulkdelete/config"
	"github.com/blnkfinance/bulkdelete/internal/apierror"
	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	KeyHeader       = "X-Bulkdelete-Key"
	RequestIDHeader = "X-Request-Id"

	// RequestIDKey is the gin context key holding the request id.
	RequestIDKey = "request_id"
)

// RateLimitMiddleware limits inbound invocations per client using Tollbooth.
// It is a no-op when no rate limit is configured.
func RateLimitMiddleware(conf *config.Configuration) gin.HandlerFunc {
	lmt := newLimiter(conf.RateLimit)
	if lmt == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		if httpError := tollbooth.LimitByRequest(lmt, c.Writer, c.Request); httpError != nil {
			c.AbortWithStatusJSON(httpError.StatusCode, apierror.APIError{
				Code:    apierror.ErrRateLimited,
				Status:  httpError.StatusCode,
				Message: httpError.Message,
			})
			return
		}
		c.Next()
	}
}

func newLimiter(conf config.RateLimitConfig) *limiter.Limiter {
	if conf.RequestsPerSecond == nil || conf.Burst == nil {
		return nil
	}

	ttl := 3 * time.Hour
	if conf.CleanupIntervalSec != nil {
		ttl = time.Duration(*conf.CleanupIntervalSec) * time.Second
	}
	lmt := tollbooth.NewLimiter(*conf.RequestsPerSecond, &limiter.ExpirableOptions{
		DefaultExpirationTTL: ttl,
	})
	lmt.SetBurst(*conf.Burst)
	return lmt
}

// SecretKeyAuthMiddleware rejects requests whose key header does not match secretKey.
func SecretKeyAuthMiddleware(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			abort(c, http.StatusInternalServerError, apierror.ErrInternalServer, "Secret key is not configured")
			return
		}

		clientSecret := c.GetHeader(KeyHeader)
		if clientSecret == "" {
			abort(c, http.StatusUnauthorized, apierror.ErrUnauthorized, "Missing secret key")
			return
		}

		if !secureCompare(secretKey, clientSecret) {
			abort(c, http.StatusUnauthorized, apierror.ErrUnauthorized, "Invalid secret key")
			return
		}

		c.Next()
	}
}

// RequestID propagates the caller's request id or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

func abort(c *gin.Context, status int, code apierror.ErrorCode, message string) {
	c.AbortWithStatusJSON(status, apierror.APIError{Code: code, Status: status, Message: message})
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
