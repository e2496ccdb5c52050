package server

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	twerr "github.com/helsing-ai/twurst/error"
)

// Content-Type values for the two Twirp streaming transports (§4.6).
const (
	BinaryStreamContentType = "application/x-twurst-protobuf-stream"
	JSONStreamContentType   = "application/jsonl"
)

// Binary stream frame flags.
const (
	frameFlagMessage uint8 = 0
	frameFlagError   uint8 = 48
)

// StreamItem is either a message of type M or a terminal TwirpError,
// matching the Rust streaming handler's Result<M, TwirpError> item shape.
type StreamItem[M proto.Message] struct {
	Message M
	Err     *twerr.Error
}

// RouteStreaming registers a server-streaming route at path: produce is
// invoked once per call with the decoded input and yields a sequence of
// StreamItem values via the returned channel. The transport (binary frame
// or JSON-lines) is chosen from the request's Content-Type, matching the
// existing unary negotiation in spirit (§4.6 does not negotiate a third
// "none" option: only the two streaming content types are accepted here).
func RouteStreaming[In, Out proto.Message](
	tr *TwirpRouter,
	path string,
	newIn func() In,
	produce func(ctx context.Context, in In, parts *RequestParts, state any) (<-chan StreamItem[Out], *twerr.Error),
) *TwirpRouter {
	tr.routes = append(tr.routes, route{
		path: path,
		handler: func(w http.ResponseWriter, r *http.Request, state any) {
			r.Body = http.MaxBytesReader(w, r.Body, tr.maxBodyBytes)
			serveStreaming(w, r, newIn, func(ctx context.Context, in In, parts *RequestParts) (<-chan StreamItem[Out], *twerr.Error) {
				return produce(ctx, in, parts, state)
			})
		},
	})
	return tr
}

func serveStreaming[In, Out proto.Message](
	w http.ResponseWriter,
	r *http.Request,
	newIn func() In,
	produce func(ctx context.Context, in In, parts *RequestParts) (<-chan StreamItem[Out], *twerr.Error),
) {
	contentType := r.Header.Get("Content-Type")
	var asJSON bool
	switch contentType {
	case BinaryStreamContentType:
		asJSON = false
	case JSONStreamContentType:
		asJSON = true
	default:
		err := twerr.MalformedError(fmt.Sprintf("Unsupported content type: %s", contentType))
		_ = err.WriteHTTPResponse(w)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		twerr.InternalErrorWith(err).WriteHTTPResponse(w)
		return
	}

	in := newIn()
	// Binary-stream requests are encoded the same way a unary binary body
	// is; streaming here refers only to the response direction.
	if unmarshalErr := proto.Unmarshal(body, in); unmarshalErr != nil {
		twerr.MalformedError(fmt.Sprintf("Invalid binary protobuf request: %s", unmarshalErr)).WriteHTTPResponse(w)
		return
	}

	items, produceErr := produce(r.Context(), in, PartsFromRequest(r))
	if produceErr != nil {
		produceErr.WriteHTTPResponse(w)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	for item := range items {
		if item.Err != nil {
			writeStreamError(w, asJSON, item.Err)
		} else {
			writeStreamMessage(w, asJSON, item.Message)
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func writeStreamMessage(w io.Writer, asJSON bool, msg proto.Message) {
	if asJSON {
		body, err := protojson.Marshal(msg)
		if err != nil {
			return
		}
		envelope, _ := json.Marshal(struct {
			Message json.RawMessage `json:"message"`
		}{Message: body})
		w.Write(envelope)
		return
	}
	body, err := proto.Marshal(msg)
	if err != nil {
		return
	}
	writeFrame(w, frameFlagMessage, body)
}

func writeStreamError(w io.Writer, asJSON bool, twErr *twerr.Error) {
	body, err := twErr.MarshalJSON()
	if err != nil {
		return
	}
	if asJSON {
		envelope, _ := json.Marshal(struct {
			Error json.RawMessage `json:"error"`
		}{Error: body})
		w.Write(envelope)
		return
	}
	writeFrame(w, frameFlagError, body)
}

// writeFrame writes the 5-byte frame header [flag:u8][length:u32 be]
// followed by payload, per §4.6/§9. A length exceeding uint32 range is
// reported as internal (an error frame is written in its place) and the
// frame is skipped; in practice Twirp messages never approach 4GiB, so this
// is a defensive bound rather than an expected path.
func writeFrame(w io.Writer, flag uint8, payload []byte) {
	if uint64(len(payload)) > uint64(^uint32(0)) {
		errBody, err := twerr.InternalError(fmt.Sprintf("stream frame of %d bytes exceeds the 32-bit length field", len(payload))).MarshalJSON()
		if err == nil {
			writeFrame(w, frameFlagError, errBody)
		}
		return
	}
	header := make([]byte, 5)
	header[0] = flag
	binary.BigEndian.PutUint32(header[1:], uint32(len(payload)))
	w.Write(header)
	w.Write(payload)
}

// ReadFrame reads a single binary-stream frame from r, returning the flag
// and payload, for consumers of a binary-stream response (the generated
// client has no streaming methods, so callers read frames with this
// directly).
func ReadFrame(r io.Reader) (flag uint8, payload []byte, err error) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}
	flag = header[0]
	length := binary.BigEndian.Uint32(header[1:])
	payload = make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return flag, payload, nil
}

// IsErrorFrame reports whether flag marks an in-band TwirpError frame.
func IsErrorFrame(flag uint8) bool {
	return flag == frameFlagError
}
