package server

import (
	"net/http"
	"net/url"
)

// RequestParts is the non-body portion of an incoming request: method, URL,
// and headers, the same information a request extractor is given to derive
// a typed value from.
type RequestParts struct {
	Method string
	URL    *url.URL
	Header http.Header
}

// PartsFromRequest builds RequestParts from an *http.Request, capturing the
// request's method/URL/headers before its body is consumed.
func PartsFromRequest(r *http.Request) *RequestParts {
	return &RequestParts{Method: r.Method, URL: r.URL, Header: r.Header}
}

// FromRequestParts derives a typed value of T from parts and state, or
// fails with a ResponseError (§4.5's extractor semantics). state is the
// router's shared state value (see TwirpRouter.Build).
type FromRequestParts[T any] func(parts *RequestParts, state any) (T, *ResponseError)

// ResponseError is an error produced by a failed request extractor. It
// knows how to render itself as an HTTP response; the router re-parses
// that response as a TwirpError, per §9's design note on extractor
// rejection conversion.
type ResponseError struct {
	Status int
	Body   []byte
}

// WriteHTTPResponse writes e to w.
func (e *ResponseError) WriteHTTPResponse(w http.ResponseWriter) {
	w.WriteHeader(e.Status)
	w.Write(e.Body)
}
