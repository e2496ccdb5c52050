package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	twerr "github.com/helsing-ai/twurst/error"
	"github.com/helsing-ai/twurst/server"
)

func newTestRouter() http.Handler {
	tr := server.NewRouter(nil)
	server.Route(tr, "/example.ExampleService/Test",
		func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} },
		func(ctx context.Context, in *wrapperspb.StringValue, parts *server.RequestParts, state any) (*timestamppb.Timestamp, *twerr.Error) {
			if in.Value == "unauthed" {
				return nil, twerr.UnauthenticatedError("Invalid password")
			}
			return &timestamppb.Timestamp{Seconds: 10}, nil
		})
	server.Route(tr, "/example.ExampleService/Empty",
		func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} },
		func(ctx context.Context, in *wrapperspb.StringValue, parts *server.RequestParts, state any) (*wrapperspb.StringValue, *twerr.Error) {
			return &wrapperspb.StringValue{}, nil
		})
	return tr.Build()
}

// Property 6: unknown path returns 404 bad_route.
func TestFallback(t *testing.T) {
	h := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/nope", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "bad_route", body["code"])
	assert.Equal(t, "/nope is not a supported Twirp method", body["msg"])
}

// A registered path hit with a non-POST method is rejected the same way an
// unmatched path is, per §4.5's HTTP method discipline.
func TestNonPostMethodRejected(t *testing.T) {
	h := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/example.ExampleService/Test", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "bad_route", body["code"])
}

// Property 7: missing Content-Type returns 400 malformed.
func TestMissingContentType(t *testing.T) {
	h := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/example.ExampleService/Test", strings.NewReader(""))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "malformed", body["code"])
	assert.Equal(t, "No content-type header", body["msg"])
}

// Property 8: empty body protobuf request for a no-required-fields message
// returns 200 and an empty body.
func TestEmptyBodySuccess(t *testing.T) {
	h := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/example.ExampleService/Empty", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/protobuf")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

// Property 9: invalid binary body returns 400 malformed with the expected
// message prefix.
func TestInvalidBinaryBody(t *testing.T) {
	h := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/example.ExampleService/Test", strings.NewReader("1234"))
	req.Header.Set("Content-Type", "application/protobuf")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "malformed", body["code"])
	assert.True(t, strings.HasPrefix(body["msg"].(string), "Invalid binary protobuf request: "))
}

// Property 10: invalid JSON body returns 400 malformed with the expected
// message prefix.
func TestInvalidJSONBody(t *testing.T) {
	h := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/example.ExampleService/Test", strings.NewReader("foo"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "malformed", body["code"])
	assert.True(t, strings.HasPrefix(body["msg"].(string), "Invalid JSON protobuf request: "))
}

// S3: handler-returned error propagates verbatim with the mapped status.
func TestHandlerErrorPropagates(t *testing.T) {
	h := newTestRouter()
	reqBody, _ := proto.Marshal(wrapperspb.String("unauthed"))
	req := httptest.NewRequest(http.MethodPost, "/example.ExampleService/Test", strings.NewReader(string(reqBody)))
	req.Header.Set("Content-Type", "application/protobuf")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unauthenticated", body["code"])
	assert.Equal(t, "Invalid password", body["msg"])
}

func TestSuccessfulBinaryCall(t *testing.T) {
	h := newTestRouter()
	reqBody, _ := proto.Marshal(wrapperspb.String("x"))
	req := httptest.NewRequest(http.MethodPost, "/example.ExampleService/Test", strings.NewReader(string(reqBody)))
	req.Header.Set("Content-Type", "application/protobuf")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/protobuf", w.Header().Get("Content-Type"))

	out := &timestamppb.Timestamp{}
	assert.NoError(t, proto.Unmarshal(w.Body.Bytes(), out))
	assert.Equal(t, int64(10), out.Seconds)
}
