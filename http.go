// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ggst

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Transport performs one network exchange: the envelope string goes out in
// the "data" form field and the raw response body comes back.
type Transport interface {
	Exchange(ctx context.Context, endpoint string, data string) ([]byte, error)
}

// HTTPTransport posts form-encoded envelopes to the upstream API.
// No retries are attempted; a failed exchange is reported once.
type HTTPTransport struct {
	client  *http.Client
	baseURL string
	header  http.Header
}

// NewHTTPTransport creates a transport for baseURL with the fixed client
// headers. A nil client uses http.DefaultClient.
func NewHTTPTransport(client *http.Client, baseURL, userAgent, clientVersion string) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	header := make(http.Header)
	header.Set("User-Agent", userAgent)
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	header.Set("X-Client-Version", clientVersion)
	return &HTTPTransport{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		header:  header,
	}
}

// CleanlyCloseBody drains and closes an HTTP response body to prevent
// HTTP/2 GOAWAY errors caused by closing bodies with unread data.
// See: https://github.com/golang/go/issues/46071
func CleanlyCloseBody(body io.ReadCloser) error {
	if body == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, body)
	return body.Close()
}

func (t *HTTPTransport) Exchange(ctx context.Context, endpoint string, data string) ([]byte, error) {
	form := url.Values{"data": {data}}
	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		t.baseURL+endpoint,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrTransport, err)
	}
	request.Header = t.header.Clone()

	resp, err := t.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer CleanlyCloseBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: received status code: %d", ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	return body, nil
}
