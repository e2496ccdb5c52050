// Package codec implements Twirp content negotiation: mapping a
// Content-Type header to a wire codec, and encoding/decoding protobuf
// messages in either binary or canonical protobuf-JSON form.
package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	twerr "github.com/helsing-ai/twurst/error"
)

// Codec selects the wire representation used for a request or response
// body.
type Codec int

const (
	// Binary is the application/protobuf wire form.
	Binary Codec = iota
	// JSON is the application/json canonical protobuf-JSON wire form.
	JSON
)

// ContentType returns the Content-Type header value for c.
func (c Codec) ContentType() string {
	switch c {
	case JSON:
		return "application/json"
	default:
		return "application/protobuf"
	}
}

// FromContentType maps a Content-Type header value to a Codec. An empty
// value yields malformed("No content-type header"); any value other than
// "application/protobuf" or "application/json" yields malformed("Unsupported
// content type: <value>").
func FromContentType(contentType string) (Codec, *twerr.Error) {
	switch contentType {
	case "":
		return 0, twerr.MalformedError("No content-type header")
	case "application/protobuf":
		return Binary, nil
	case "application/json":
		return JSON, nil
	default:
		return 0, twerr.MalformedError(fmt.Sprintf("Unsupported content type: %s", contentType))
	}
}

// FromResponseContentType is like FromContentType but uses the response
// error messages mandated for the client's inbound mapping (§4.4).
func FromResponseContentType(contentType string) (Codec, *twerr.Error) {
	switch contentType {
	case "":
		return 0, twerr.MalformedError("No content-type in the response")
	case "application/protobuf":
		return Binary, nil
	case "application/json":
		return JSON, nil
	default:
		return 0, twerr.MalformedError(fmt.Sprintf("Unsupported response content-type: %s", contentType))
	}
}

// Encode serializes msg in the given codec.
func Encode(c Codec, msg proto.Message) ([]byte, *twerr.Error) {
	switch c {
	case JSON:
		body, err := protojson.MarshalOptions{}.Marshal(msg)
		if err != nil {
			return nil, twerr.InternalErrorWith(err)
		}
		return body, nil
	default:
		body, err := proto.MarshalOptions{}.Marshal(msg)
		if err != nil {
			return nil, twerr.InternalErrorWith(err)
		}
		return body, nil
	}
}

// Decode deserializes body into msg using the given codec. Binary decode
// failures are reported as malformed with a "Invalid binary protobuf
// request: " prefix; JSON decode failures use "Invalid JSON protobuf
// request: ".
func Decode(c Codec, body []byte, msg proto.Message) *twerr.Error {
	switch c {
	case JSON:
		if err := protojson.UnmarshalOptions{DiscardUnknown: true}.Unmarshal(body, msg); err != nil {
			return twerr.MalformedError(fmt.Sprintf("Invalid JSON protobuf request: %s", err))
		}
		return nil
	default:
		if err := proto.Unmarshal(body, msg); err != nil {
			return twerr.MalformedError(fmt.Sprintf("Invalid binary protobuf request: %s", err))
		}
		return nil
	}
}

// DecodeResponse deserializes a client response body into msg, matching
// §4.4's client-side decode-failure mappings: binary decode failure ->
// malformed, JSON decode/transcode failure -> internal (the "transcode"
// step collapses away in Go, see SPEC_FULL.md).
func DecodeResponse(c Codec, body []byte, msg proto.Message) *twerr.Error {
	switch c {
	case JSON:
		if err := protojson.UnmarshalOptions{DiscardUnknown: true}.Unmarshal(body, msg); err != nil {
			return twerr.InternalError(fmt.Sprintf("failed to decode JSON response: %s", err))
		}
		return nil
	default:
		if err := proto.Unmarshal(body, msg); err != nil {
			return twerr.MalformedError(fmt.Sprintf("failed to decode binary response: %s", err))
		}
		return nil
	}
}
