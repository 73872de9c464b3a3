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

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/blnkfinance/bulkdelete/api/middleware"
	"github.com/blnkfinance/bulkdelete/internal/apierror"
	"github.com/blnkfinance/bulkdelete/model"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type invocation struct {
	handle func(context.Context, model.Event)
	event  model.Event
}

// resolve matches the event to its function and stamps the request id.
func (a *Api) resolve(c *gin.Context, event model.Event) (invocation, error) {
	name := event.ExecutionMetadata.FunctionName
	handle, ok := a.service.Handler(name)
	if !ok {
		return invocation{}, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("unknown function %q", name), nil)
	}
	if event.ExecutionMetadata.RequestID == "" {
		event.ExecutionMetadata.RequestID = c.GetString(middleware.RequestIDKey)
	}
	return invocation{handle: handle, event: event}, nil
}

func respondError(c *gin.Context, err error) {
	c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
}

// HandleSync runs one event envelope before responding.
func (a *Api) HandleSync(c *gin.Context) {
	var event model.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inv, err := a.resolve(c, event)
	if err != nil {
		respondError(c, err)
		return
	}

	inv.handle(c.Request.Context(), inv.event)
	c.JSON(http.StatusOK, gin.H{"status": "processed", "request_id": inv.event.ExecutionMetadata.RequestID})
}

// HandleAsync accepts a batch of envelopes and handles them in order in the background.
// The whole batch is rejected when any function name is unknown.
func (a *Api) HandleAsync(c *gin.Context) {
	var events []model.Event
	if err := c.ShouldBindJSON(&events); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(events) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one event is required"})
		return
	}

	invocations := make([]invocation, 0, len(events))
	for _, event := range events {
		inv, err := a.resolve(c, event)
		if err != nil {
			respondError(c, err)
			return
		}
		invocations = append(invocations, inv)
	}

	ctx := context.WithoutCancel(c.Request.Context())
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		for _, inv := range invocations {
			inv.handle(ctx, inv.event)
		}
		logrus.WithField("count", len(invocations)).Info("async batch handled")
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "count": len(invocations)})
}
