package codec_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/helsing-ai/twurst/codec"
)

func TestFromContentType(t *testing.T) {
	c, err := codec.FromContentType("application/protobuf")
	assert.Nil(t, err)
	assert.Equal(t, codec.Binary, c)

	c, err = codec.FromContentType("application/json")
	assert.Nil(t, err)
	assert.Equal(t, codec.JSON, c)

	_, err = codec.FromContentType("")
	assert.NotNil(t, err)
	assert.Equal(t, "No content-type header", err.Message())

	_, err = codec.FromContentType("text/plain")
	assert.NotNil(t, err)
	assert.Equal(t, "Unsupported content type: text/plain", err.Message())
}

func TestBinaryRoundTrip(t *testing.T) {
	in := wrapperspb.String("hello")
	body, encErr := codec.Encode(codec.Binary, in)
	assert.Nil(t, encErr)

	out := &wrapperspb.StringValue{}
	decErr := codec.Decode(codec.Binary, body, out)
	assert.Nil(t, decErr)
	if diff := cmp.Diff(in, out, protocmp.Transform()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	in := wrapperspb.String("hello")
	body, encErr := codec.Encode(codec.JSON, in)
	assert.Nil(t, encErr)

	out := &wrapperspb.StringValue{}
	decErr := codec.Decode(codec.JSON, body, out)
	assert.Nil(t, decErr)
	if diff := cmp.Diff(in, out, protocmp.Transform()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalidBinaryRequest(t *testing.T) {
	out := &wrapperspb.StringValue{}
	decErr := codec.Decode(codec.Binary, []byte("1234"), out)
	assert.NotNil(t, decErr)
	assert.Contains(t, decErr.Message(), "Invalid binary protobuf request: ")
}

func TestInvalidJSONRequest(t *testing.T) {
	out := &wrapperspb.StringValue{}
	decErr := codec.Decode(codec.JSON, []byte("foo"), out)
	assert.NotNil(t, decErr)
	assert.Contains(t, decErr.Message(), "Invalid JSON protobuf request: ")
}
