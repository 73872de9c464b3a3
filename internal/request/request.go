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

package request

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/blnkfinance/bulkdelete/internal/apierror"
)

// maxErrorBody caps how much of a failed response body is kept in the error message.
const maxErrorBody = 1 << 12

// ToJsonReq converts a Go object to a JSON-encoded HTTP request payload.
//
// Parameters:
// - payload interface{}: The data structure to be serialized into JSON.
//
// Returns:
// - *bytes.Buffer: The JSON-encoded payload wrapped in a bytes buffer, ready to be sent in a request.
// - error: An error if the JSON marshalling process fails.
func ToJsonReq(payload interface{}) (*bytes.Buffer, error) {
	c, e := json.Marshal(payload)
	if e != nil {
		return nil, e
	}
	return bytes.NewBuffer(c), nil
}

// NewJSONRequest builds a POST request carrying payload as JSON.
//
// Parameters:
// - ctx context.Context: Bound to the request for cancellation.
// - url string: The absolute URL to call.
// - token string: Sent verbatim in the Authorization header when not empty.
// - payload interface{}: The request body.
//
// Returns:
// - *http.Request: The prepared request.
// - error: An error if the payload cannot be encoded or the URL is invalid.
func NewJSONRequest(ctx context.Context, url, token string, payload interface{}) (*http.Request, error) {
	body, err := ToJsonReq(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return req, nil
}

// Call sends the request with client and decodes a 2xx JSON body into response.
// Non-2xx responses are returned as apierror.APIError classified from the status code.
// A nil response skips decoding; an empty body is not an error.
//
// Parameters:
// - client *http.Client: The client to send with. nil uses a default client.
// - req *http.Request: The prepared HTTP request to send.
// - response interface{}: The target structure to hold the decoded JSON response.
//
// Returns:
// - *http.Response: The raw HTTP response object.
// - error: An error if the request fails, the status is not 2xx, or decoding fails.
func Call(client *http.Client, req *http.Request, response interface{}) (*http.Response, error) {
	req.Header.Set("Content-Type", "application/json")
	if client == nil {
		client = &http.Client{}
	}

	resp, err := client.Do(req)
	if err != nil {
		return resp, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp, apierror.FromStatus(resp.StatusCode, errorMessage(raw))
	}

	if response == nil {
		return resp, nil
	}
	err = json.NewDecoder(resp.Body).Decode(response)
	if err == io.EOF {
		return resp, nil
	}
	return resp, err
}

// errorMessage extracts the "message" field of a platform error body, falling back to the raw text.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return string(bytes.TrimSpace(raw))
}
