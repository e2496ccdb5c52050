package server_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	twerr "github.com/helsing-ai/twurst/error"
	"github.com/helsing-ai/twurst/server"
)

// S5: server yields two frames [Ok(R), Err(not_found "foo")]; client
// observes exactly two frames, the second carrying code not_found.
func TestStreamingBinaryTwoFrames(t *testing.T) {
	tr := server.NewRouter(nil)
	server.RouteStreaming(tr, "/example.ExampleService/Stream",
		func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} },
		func(ctx context.Context, in *wrapperspb.StringValue, parts *server.RequestParts, state any) (<-chan server.StreamItem[*wrapperspb.StringValue], *twerr.Error) {
			ch := make(chan server.StreamItem[*wrapperspb.StringValue], 2)
			ch <- server.StreamItem[*wrapperspb.StringValue]{Message: wrapperspb.String("R")}
			ch <- server.StreamItem[*wrapperspb.StringValue]{Err: twerr.NotFoundError("foo")}
			close(ch)
			return ch, nil
		})
	h := tr.Build()

	req := httptest.NewRequest(http.MethodPost, "/example.ExampleService/Stream", bytes.NewReader(nil))
	req.Header.Set("Content-Type", server.BinaryStreamContentType)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := bytes.NewReader(w.Body.Bytes())

	flag1, payload1, err := server.ReadFrame(body)
	assert.NoError(t, err)
	assert.False(t, server.IsErrorFrame(flag1))
	msg := &wrapperspb.StringValue{}
	assert.NoError(t, proto.Unmarshal(payload1, msg))
	assert.Equal(t, "R", msg.Value)

	flag2, payload2, err := server.ReadFrame(body)
	assert.NoError(t, err)
	assert.True(t, server.IsErrorFrame(flag2))
	var streamErr twerr.Error
	assert.NoError(t, streamErr.UnmarshalJSON(payload2))
	assert.Equal(t, twerr.NotFound, streamErr.Code())
	assert.Equal(t, "foo", streamErr.Message())

	_, _, err = server.ReadFrame(body)
	assert.Error(t, err) // exactly two frames
}

func TestStreamingUnsupportedContentType(t *testing.T) {
	tr := server.NewRouter(nil)
	server.RouteStreaming(tr, "/example.ExampleService/Stream",
		func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} },
		func(ctx context.Context, in *wrapperspb.StringValue, parts *server.RequestParts, state any) (<-chan server.StreamItem[*wrapperspb.StringValue], *twerr.Error) {
			ch := make(chan server.StreamItem[*wrapperspb.StringValue])
			close(ch)
			return ch, nil
		})
	h := tr.Build()

	req := httptest.NewRequest(http.MethodPost, "/example.ExampleService/Stream", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
