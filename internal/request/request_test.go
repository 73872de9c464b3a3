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

package request_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blnkfinance/bulkdelete/internal/apierror"
	"github.com/blnkfinance/bulkdelete/internal/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToJsonReq_Success(t *testing.T) {
	payload := map[string]string{
		"key": "value",
	}

	reqBuffer, err := request.ToJsonReq(payload)
	assert.NoError(t, err)

	expectedJSON, _ := json.Marshal(payload)
	assert.Equal(t, expectedJSON, reqBuffer.Bytes())
}

func TestToJsonReq_Fail(t *testing.T) {
	payload := map[string]interface{}{
		"key": make(chan int),
	}

	reqBuffer, err := request.ToJsonReq(payload)
	assert.Error(t, err)
	assert.Nil(t, reqBuffer)
}

func TestNewJSONRequest(t *testing.T) {
	req, err := request.NewJSONRequest(context.Background(), "https://api.example.com/works.list", "secret-token", map[string]int{"limit": 1})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "secret-token", req.Header.Get("Authorization"))
}

func TestCall_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(`{"status":"success"}`))
		assert.NoError(t, err)
	}))
	defer server.Close()

	req, err := request.NewJSONRequest(context.Background(), server.URL, "", nil)
	require.NoError(t, err)

	var response map[string]string
	resp, err := request.Call(server.Client(), req, &response)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", response["status"])
}

func TestCall_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	req, err := request.NewJSONRequest(context.Background(), server.URL, "", nil)
	require.NoError(t, err)

	var response map[string]string
	_, err = request.Call(nil, req, &response)
	assert.NoError(t, err)
}

func TestCall_Fail_DecodeResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(`{malformed json response`))
		assert.NoError(t, err)
	}))
	defer server.Close()

	req, err := request.NewJSONRequest(context.Background(), server.URL, "", nil)
	require.NoError(t, err)

	var response map[string]string
	_, err = request.Call(nil, req, &response)
	assert.Error(t, err)
}

func TestCall_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte(`{"message":"work not found"}`))
		assert.NoError(t, err)
	}))
	defer server.Close()

	req, err := request.NewJSONRequest(context.Background(), server.URL, "", nil)
	require.NoError(t, err)

	resp, err := request.Call(nil, req, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var apiErr apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
	assert.Equal(t, "work not found", apiErr.Message)
}

func TestCall_Fail_Request(t *testing.T) {
	req, err := http.NewRequest("GET", "http://invalid-url", nil)
	assert.NoError(t, err)

	var response map[string]string
	_, err = request.Call(nil, req, &response)
	assert.Error(t, err)
}
