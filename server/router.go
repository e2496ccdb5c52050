// Package server implements the Twirp server runtime: TwirpRouter (unary
// routing, request extractors, bad-route fallback), the streaming
// transports (binary frame and JSON-lines), and GrpcRouter (the gRPC
// adapter sharing the same handler).
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/protobuf/proto"

	"github.com/helsing-ai/twurst/codec"
	twerr "github.com/helsing-ai/twurst/error"
)

// DefaultMaxBodyBytes bounds the size of a request body read by a route,
// absent an explicit override via TwirpRouter.WithMaxBodyBytes.
const DefaultMaxBodyBytes = 4 << 20 // 4 MiB

// route is a single bound (path -> typed handler) entry.
type route struct {
	path    string
	handler func(w http.ResponseWriter, r *http.Request, state any)
}

// TwirpRouter builds an http.Handler that dispatches POST requests by URL
// path to per-method typed handlers, falling back to a bad_route response
// for unmatched paths.
type TwirpRouter struct {
	routes       []route
	maxBodyBytes int64
	state        any
}

// NewRouter returns an empty TwirpRouter. state is passed through to every
// route's extractors and handler invocation (it plays the role the Rust
// axum router's injected `S` state plays).
func NewRouter(state any) *TwirpRouter {
	return &TwirpRouter{maxBodyBytes: DefaultMaxBodyBytes, state: state}
}

// WithMaxBodyBytes overrides the default request body size limit.
func (tr *TwirpRouter) WithMaxBodyBytes(n int64) *TwirpRouter {
	tr.maxBodyBytes = n
	return tr
}

// Route registers a unary handler at path. The input message is freshly
// allocated per request via newIn. Route itself runs no extractors; handle
// derives any extractor values from parts (as the generated wrappers do).
//
// handle receives the typed input, the request parts, and the router's
// state, and returns a typed output or a TwirpError. This mirrors the
// per-method monomorphized wrapper the code generator emits (§9).
func Route[In, Out proto.Message](
	tr *TwirpRouter,
	path string,
	newIn func() In,
	handle func(ctx context.Context, in In, parts *RequestParts, state any) (Out, *twerr.Error),
) *TwirpRouter {
	tr.routes = append(tr.routes, route{
		path: path,
		handler: func(w http.ResponseWriter, r *http.Request, state any) {
			serveUnary(w, r, tr.maxBodyBytes, newIn, func(ctx context.Context, in In, parts *RequestParts) (Out, *twerr.Error) {
				return handle(ctx, in, parts, state)
			})
		},
	})
	return tr
}

func serveUnary[In, Out proto.Message](
	w http.ResponseWriter,
	r *http.Request,
	maxBodyBytes int64,
	newIn func() In,
	handle func(ctx context.Context, in In, parts *RequestParts) (Out, *twerr.Error),
) {
	c, cerr := codec.FromContentType(r.Header.Get("Content-Type"))
	if cerr != nil {
		writeError(w, cerr)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, twerr.InternalErrorWith(err))
		return
	}

	in := newIn()
	if decErr := codec.Decode(c, body, in); decErr != nil {
		writeError(w, decErr)
		return
	}

	parts := PartsFromRequest(r)
	out, handleErr := func() (out Out, handleErr *twerr.Error) {
		defer func() {
			if p := recover(); p != nil {
				handleErr = twerr.InternalError(fmt.Sprintf("panic in handler: %v", p))
			}
		}()
		return handle(r.Context(), in, parts)
	}()

	if handleErr != nil {
		writeError(w, handleErr)
		return
	}

	respBody, encErr := codec.Encode(c, out)
	if encErr != nil {
		writeError(w, encErr)
		return
	}

	w.Header().Set("Content-Type", c.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(respBody)
}

func writeError(w http.ResponseWriter, err *twerr.Error) {
	_ = err.WriteHTTPResponse(w)
}

// Build returns the assembled http.Handler. Once built, routes are
// immutable; further calls to Route have no effect on handlers already
// returned by a prior Build. Only POST requests are routed (§4.5); any other
// method falls through to Fallback, since TwirpRouter may be used standalone
// without an outer framework (e.g. goji's pat.Post) to enforce that already.
func (tr *TwirpRouter) Build() http.Handler {
	routes := make(map[string]func(w http.ResponseWriter, r *http.Request, state any), len(tr.routes))
	for _, rt := range tr.routes {
		routes[rt.path] = rt.handler
	}
	state := tr.state

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			Fallback(w, r)
			return
		}
		handler, ok := routes[r.URL.Path]
		if !ok {
			Fallback(w, r)
			return
		}
		handler(w, r, state)
	})
}

// Fallback responds to any request with a bad_route TwirpError and HTTP
// 404. It may be composed as a stand-alone handler into a larger router
// (e.g. alongside non-Twirp endpoints), per §4.5.
func Fallback(w http.ResponseWriter, r *http.Request) {
	err := twerr.New(twerr.BadRoute, fmt.Sprintf("%s is not a supported Twirp method", r.URL.Path))
	_ = err.WriteHTTPResponse(w)
}
