// Package client implements the Twirp client runtime: TwirpHttpClient builds
// and issues a Twirp request over an injected HTTP service and translates
// the response (or transport failure) into a typed result or TwirpError.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/protobuf/proto"

	"github.com/helsing-ai/twurst/codec"
	twerr "github.com/helsing-ai/twurst/error"
)

// HTTPClient is the narrow interface TwirpHttpClient depends on for
// transport. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Readiness is optionally implemented by an HTTPClient to report whether it
// is ready to accept a call. When not implemented, the client is always
// treated as ready.
type Readiness interface {
	Ready(ctx context.Context) error
}

// TwirpHttpClient issues Twirp calls against a base URL (or relative paths)
// over an injected HTTPClient.
type TwirpHttpClient struct {
	client  HTTPClient
	baseURL string
	codec   codec.Codec
}

// Option configures a TwirpHttpClient.
type Option func(*TwirpHttpClient)

// WithJSON selects the JSON codec instead of the binary default.
func WithJSON() Option {
	return func(c *TwirpHttpClient) { c.codec = codec.JSON }
}

// NewClient constructs a TwirpHttpClient that issues relative-URL requests
// against httpClient (no base URL).
func NewClient(httpClient HTTPClient, opts ...Option) *TwirpHttpClient {
	return NewClientWithBaseURL(httpClient, "", opts...)
}

// NewClientWithBaseURL constructs a TwirpHttpClient with an absolute base
// URL. A trailing "/" is stripped.
func NewClientWithBaseURL(httpClient HTTPClient, baseURL string, opts ...Option) *TwirpHttpClient {
	c := &TwirpHttpClient{
		client:  httpClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		codec:   codec.Binary,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call invokes the Twirp method at path, encoding in and decoding into out.
func (c *TwirpHttpClient) Call(ctx context.Context, path string, in, out proto.Message) *twerr.Error {
	if r, ok := c.client.(Readiness); ok {
		if err := r.Ready(ctx); err != nil {
			return twerr.Wrap(twerr.Unknown, fmt.Sprintf("Service is not ready: %s", err), err)
		}
	}

	body, encErr := codec.Encode(c.codec, in)
	if encErr != nil {
		return encErr
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return twerr.MalformedError(fmt.Sprintf("failed to build request: %s", err))
	}
	req.Header.Set("Content-Type", c.codec.ContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return twerr.Wrap(twerr.Unknown, fmt.Sprintf("failed to perform request: %s", err), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return twerr.Wrap(twerr.Unknown, fmt.Sprintf("failed to read response: %s", err), err)
	}

	if resp.StatusCode != http.StatusOK {
		return twerr.FromHTTPResponse(resp.StatusCode, respBody)
	}

	respCodec, codecErr := codec.FromResponseContentType(resp.Header.Get("Content-Type"))
	if codecErr != nil {
		return codecErr
	}

	if decErr := codec.DecodeResponse(respCodec, respBody, out); decErr != nil {
		return decErr
	}
	return nil
}
